package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		vars     Vars
		expected string
	}{
		{
			name:     "target and pc",
			text:     "{pc} leans close to {target}.",
			vars:     NewVars("Sable", "Rook"),
			expected: "Rook leans close to Sable.",
		},
		{
			name:     "repeated placeholders",
			text:     "{target}? {target}!",
			vars:     NewVars("Sable", ""),
			expected: "Sable? Sable!",
		},
		{
			name:     "missing values use neutral nouns",
			text:     "{pc} watches {target}.",
			vars:     nil,
			expected: "you watches the captive.",
		},
		{
			name:     "custom keys",
			text:     "The {item} glints.",
			vars:     NewVars("Sable", "Rook").With("item", "pendulum"),
			expected: "The pendulum glints.",
		},
		{
			name:     "unknown placeholder untouched",
			text:     "{nobody} waits.",
			vars:     NewVars("Sable", "Rook"),
			expected: "{nobody} waits.",
		},
		{
			name:     "no placeholders",
			text:     "Silence.",
			vars:     NewVars("Sable", "Rook"),
			expected: "Silence.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.text, tt.vars))
		})
	}
}

func TestVarsWithDoesNotMutate(t *testing.T) {
	base := NewVars("Sable", "Rook")
	derived := base.With("item", "rope")

	assert.NotContains(t, base, "item")
	assert.Equal(t, "rope", derived["item"])
	assert.Equal(t, "Sable", derived[KeyTarget])
}
