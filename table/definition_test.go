package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("toggle", func(t *testing.T) {
		def, err := Load(filepath.Join("testdata", "toggle.yaml"))
		require.NoError(t, err)
		require.NoError(t, def.Validate())

		assert.Equal(t, "toggle", def.Name)
		assert.Equal(t, "S1", def.Initial)
		assert.Equal(t, []string{"S1", "S2"}, def.States)
		require.Len(t, def.Transitions, 4)
		assert.True(t, def.Transitions[0].Halt)
		require.NotNil(t, def.Transitions[0].Emit)
		assert.Equal(t, "Quitting", *def.Transitions[0].Emit)
		assert.Nil(t, def.Transitions[1].Emit)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join("testdata", "nope.yaml"))
		require.Error(t, err)
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := Parse([]byte("name: x\ninitial: a\nstates: [a]\nevents: [e]\nguards: []\n"))
		require.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("states: [a"))
		require.Error(t, err)
	})

	t.Run("empty emit is a response", func(t *testing.T) {
		def, err := Parse([]byte(`
name: x
initial: a
states: [a]
events: [e]
transitions:
  - {from: a, on: e, halt: true, emit: ""}
`))
		require.NoError(t, err)
		require.NotNil(t, def.Transitions[0].Emit)
		assert.Equal(t, "", *def.Transitions[0].Emit)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Definition {
		return &Definition{
			Name:    "door",
			Initial: "closed",
			States:  []string{"closed", "open"},
			Events:  []string{"push", "lock"},
			Transitions: []Rule{
				{From: "closed", On: "push", To: "open"},
				{From: "closed", On: "lock", Halt: true},
				{From: "open", On: "push", To: "closed"},
				{From: "open", On: "lock", To: "open"},
			},
		}
	}

	tests := []struct {
		name     string
		mutate   func(d *Definition)
		contains []string
		missing  bool
	}{
		{
			name:     "missing name",
			mutate:   func(d *Definition) { d.Name = "" },
			contains: []string{"name is required"},
		},
		{
			name:     "unknown initial",
			mutate:   func(d *Definition) { d.Initial = "ajar" },
			contains: []string{`initial state "ajar" is not declared`},
		},
		{
			name:     "no events",
			mutate:   func(d *Definition) { d.Events = nil; d.Transitions = nil },
			contains: []string{"at least one event is required"},
		},
		{
			name:     "duplicate state",
			mutate:   func(d *Definition) { d.States = append(d.States, "open") },
			contains: []string{`duplicate state "open"`},
		},
		{
			name: "halt with target",
			mutate: func(d *Definition) {
				d.Transitions[1].To = "open"
			},
			contains: []string{"mutually exclusive"},
		},
		{
			name: "neither halt nor target",
			mutate: func(d *Definition) {
				d.Transitions[1].Halt = false
			},
			contains: []string{"needs either to or halt"},
		},
		{
			name: "unknown target",
			mutate: func(d *Definition) {
				d.Transitions[0].To = "ajar"
			},
			contains: []string{`unknown target state "ajar"`},
		},
		{
			name: "unknown event",
			mutate: func(d *Definition) {
				d.Transitions = append(d.Transitions, Rule{From: "open", On: "kick", To: "open"})
			},
			contains: []string{`unknown event "kick"`},
		},
		{
			name: "duplicate rule",
			mutate: func(d *Definition) {
				d.Transitions = append(d.Transitions, Rule{From: "open", On: "push", To: "open"})
			},
			contains: []string{"open@push already handled by rule 2"},
		},
		{
			name: "missing pairs",
			mutate: func(d *Definition) {
				d.Transitions = d.Transitions[:2]
			},
			contains: []string{"missing rule for open@push", "missing rule for open@lock"},
			missing:  true,
		},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid()
			tt.mutate(def)

			err := def.Validate()
			require.ErrorIs(t, err, ErrInvalidDefinition)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
			if tt.missing {
				assert.ErrorIs(t, err, ErrMissingRule)
			}
		})
	}
}
