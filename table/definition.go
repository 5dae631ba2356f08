// Package table builds reactor machines from declarative transition tables.
//
// A table names its states and events up front and must give a rule for
// every (state, event) pair, so a loaded machine can never meet an event it
// does not know how to handle:
//
//	name: toggle
//	initial: S1
//	states: [S1, S2]
//	events: [E1, E2]
//	transitions:
//	  - {from: S1, on: E1, halt: true, emit: Quitting}
//	  - {from: S1, on: E2, to: S2}
//	  - {from: S2, on: E1, to: S1, emit: "S2@E1->S1"}
//	  - {from: S2, on: E2, to: S2, emit: "S2@E2->S2"}
package table

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDefinition wraps every validation failure
	ErrInvalidDefinition = errors.New("invalid table definition")

	// ErrMissingRule is reported for each (state, event) pair without a rule
	ErrMissingRule = errors.New("missing rule")
)

// Definition is the YAML form of a transition table.
type Definition struct {
	Name        string   `yaml:"name"`
	Initial     string   `yaml:"initial"`
	States      []string `yaml:"states"`
	Events      []string `yaml:"events"`
	Transitions []Rule   `yaml:"transitions"`
}

// Rule maps one (From, On) pair to either a next state (To) or Halt, with an
// optional response (Emit).
type Rule struct {
	From string  `yaml:"from"`
	On   string  `yaml:"on"`
	To   string  `yaml:"to,omitempty"`
	Halt bool    `yaml:"halt,omitempty"`
	Emit *string `yaml:"emit,omitempty"`
}

type key struct {
	state string
	event string
}

// Parse decodes a YAML table. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return &def, nil
}

// Load reads and decodes the YAML table at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks the table is well formed and total. Every problem found is
// reported, joined into one error wrapping ErrInvalidDefinition.
func (d *Definition) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidDefinition}, args...)...))
	}

	if d.Name == "" {
		fail("name is required")
	}

	states := d.indexNames("state", d.States, fail)
	events := d.indexNames("event", d.Events, fail)

	if d.Initial == "" {
		fail("initial state is required")
	} else if len(states) > 0 && !states[d.Initial] {
		fail("initial state %q is not declared", d.Initial)
	}

	seen := make(map[key]int)
	for i, rule := range d.Transitions {
		if !states[rule.From] {
			fail("rule %d: unknown from state %q", i, rule.From)
		}
		if !events[rule.On] {
			fail("rule %d: unknown event %q", i, rule.On)
		}
		switch {
		case rule.Halt && rule.To != "":
			fail("rule %d: halt and to %q are mutually exclusive", i, rule.To)
		case !rule.Halt && rule.To == "":
			fail("rule %d: needs either to or halt", i)
		case rule.To != "" && !states[rule.To]:
			fail("rule %d: unknown target state %q", i, rule.To)
		}

		k := key{rule.From, rule.On}
		if prev, dup := seen[k]; dup {
			fail("rule %d: %s@%s already handled by rule %d", i, rule.From, rule.On, prev)
			continue
		}
		seen[k] = i
	}

	for _, s := range d.States {
		for _, e := range d.Events {
			if _, ok := seen[key{s, e}]; !ok {
				errs = append(errs, fmt.Errorf("%w: %w for %s@%s", ErrInvalidDefinition, ErrMissingRule, s, e))
			}
		}
	}

	return errors.Join(errs...)
}

func (d *Definition) indexNames(kind string, names []string, fail func(string, ...any)) map[string]bool {
	if len(names) == 0 {
		fail("at least one %s is required", kind)
	}
	index := make(map[string]bool, len(names))
	for _, n := range names {
		switch {
		case n == "":
			fail("empty %s name", kind)
		case index[n]:
			fail("duplicate %s %q", kind, n)
		}
		index[n] = true
	}
	return index
}
