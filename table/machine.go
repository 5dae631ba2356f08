package table

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-reactor/reactor"
)

// Step is the outcome type of table machines.
type Step = reactor.Step[string, string]

// Responder receives every response produced by a table machine.
type Responder func(old string, step Step)

// Machine is a reactor.FSM driven by a validated Definition.
type Machine struct {
	def       *Definition
	steps     map[key]Step
	events    map[string]bool
	responder Responder
	logger    *slog.Logger
}

// Interface guards
var (
	_ reactor.FSM[string, string, string] = (*Machine)(nil)
	_ reactor.Initializer[string]         = (*Machine)(nil)
)

// Option represents a functional option for configuring a Machine.
type Option func(*Machine)

// WithResponder sets the function that receives responses. Without it
// responses are logged at Info level.
func WithResponder(fn Responder) Option {
	return func(m *Machine) {
		if fn != nil {
			m.responder = fn
		}
	}
}

// WithLogHandler sets a custom slog handler for the Machine instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Machine) {
		if handler != nil {
			m.logger = slog.New(handler.WithGroup("table.Machine"))
		}
	}
}

// New validates def and compiles it into a Machine.
func New(def *Definition, opts ...Option) (*Machine, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition is nil", ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		def:    def,
		steps:  make(map[key]Step, len(def.Transitions)),
		events: make(map[string]bool, len(def.Events)),
		logger: slog.Default().WithGroup("table.Machine"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("table", def.Name)

	for _, e := range def.Events {
		m.events[e] = true
	}
	for _, rule := range def.Transitions {
		var step Step
		if !rule.Halt {
			step = step.Goto(rule.To)
		}
		if rule.Emit != nil {
			step = step.Emit(*rule.Emit)
		}
		m.steps[key{rule.From, rule.On}] = step
	}
	return m, nil
}

// String returns the table name.
func (m *Machine) String() string {
	return m.def.Name
}

// Initial returns the declared initial state.
func (m *Machine) Initial() string {
	return m.def.Initial
}

// HasEvent reports whether ev is one of the declared events. Sending an
// undeclared event makes Transition panic, which stops the reactor.
func (m *Machine) HasEvent(ev string) bool {
	return m.events[ev]
}

// Transition looks up the rule for (old, ev).
func (m *Machine) Transition(old string, ev string) Step {
	step, ok := m.steps[key{old, ev}]
	if !ok {
		panic(fmt.Sprintf("table %s: no rule for %s@%s", m.def.Name, old, ev))
	}
	return step
}

// Respond hands the response to the configured Responder.
func (m *Machine) Respond(old string, step Step) {
	if m.responder != nil {
		m.responder(old, step)
		return
	}
	resp, _ := step.Response()
	next, ok := step.Next()
	m.logger.Info("Response", "from", old, "to", next, "halt", !ok, "response", resp)
}
