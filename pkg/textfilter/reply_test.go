package textfilter

import "testing"

func TestReplyCleaner_Clean(t *testing.T) {
	cleaner := NewReplyCleaner()

	tests := []struct {
		name     string
		text     string
		speaker  string
		others   []string
		filter   bool
		expected string
	}{
		{
			name:     "strips own speaker prefix",
			text:     "Sable: I will never kneel.",
			speaker:  "Sable",
			expected: "I will never kneel.",
		},
		{
			name:     "strips bold speaker prefix",
			text:     "**Sable**: *smiles* **softly**",
			speaker:  "Sable",
			expected: "*smiles* softly",
		},
		{
			name:     "cuts impersonated lines",
			text:     "*glares* Fine.\nRook: Good girl.\nSable: Don't call me that.",
			speaker:  "Sable",
			others:   []string{"Rook", "Wren"},
			expected: "*glares* Fine.",
		},
		{
			name:     "keeps later lines for the same speaker",
			text:     "*sighs*\nSable: As you wish.",
			speaker:  "Sable",
			expected: "*sighs*\nAs you wish.",
		},
		{
			name:     "prose with a colon is kept",
			text:     "I refuse: never again.",
			speaker:  "Sable",
			expected: "I refuse: never again.",
		},
		{
			name:     "cuts a line for another known subject",
			text:     "*looks away*\nWren: Don't listen to him.",
			speaker:  "Sable",
			others:   []string{"Rook", "Wren"},
			expected: "*looks away*",
		},
		{
			name:     "first line word colon is prose",
			text:     "Fine: take it, then. *turns away*",
			speaker:  "Sable",
			others:   []string{"Rook"},
			expected: "Fine: take it, then. *turns away*",
		},
		{
			name:     "unknown name later in the reply is kept",
			text:     "*sighs*\nNever: that is my answer.",
			speaker:  "Sable",
			others:   []string{"Rook"},
			expected: "*sighs*\nNever: that is my answer.",
		},
		{
			name:     "reply is all impersonation",
			text:     "Rook: Good.",
			speaker:  "Sable",
			others:   []string{"Rook"},
			expected: "",
		},
		{
			name:     "profanity untouched when not filtering",
			text:     "Damn you.",
			speaker:  "Sable",
			expected: "Damn you.",
		},
		{
			name:     "profanity filtered",
			text:     "Damn you.",
			speaker:  "Sable",
			filter:   true,
			expected: "Dang you.",
		},
		{
			name:     "empty reply",
			text:     "   ",
			speaker:  "Sable",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleaner.Clean(tt.text, tt.speaker, tt.others, tt.filter); got != tt.expected {
				t.Errorf("Clean() = %q, want %q", got, tt.expected)
			}
		})
	}
}
