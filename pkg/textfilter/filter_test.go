package textfilter

import (
	"testing"
)

func TestProfanityFilter_FilterText(t *testing.T) {
	filter := NewProfanityFilter()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "basic profanity replacement",
			input:    "Fuck this place.",
			expected: "Fudge this place.",
		},
		{
			name:     "whole word replacement",
			input:    "Oh shit, what the hell?",
			expected: "Oh shoot, what the heck?",
		},
		{
			name:     "case preservation - uppercase",
			input:    "DAMN IT!",
			expected: "DANG IT!",
		},
		{
			name:     "case preservation - title case",
			input:    "Damn it all",
			expected: "Dang it all",
		},
		{
			name:     "case preservation - mixed case",
			input:    "HeLl no",
			expected: "HeCk no",
		},
		{
			name:     "multiple profanities",
			input:    "That bastard is full of bullshit",
			expected: "That jerk is full of baloney",
		},
		{
			name:     "plural forms",
			input:    "There are too many assholes and bastards here!",
			expected: "There are too many jerks and jerks here!",
		},
		{
			name:     "longer phrase wins over contained word",
			input:    "goddamn it",
			expected: "gosh-dang it",
		},
		{
			name:     "no profanity",
			input:    "This is a nice clean sentence.",
			expected: "This is a nice clean sentence.",
		},
		{
			name:     "profanity inside other words untouched",
			input:    "The class assignment was a hello to the shell script.",
			expected: "The class assignment was a hello to the shell script.",
		},
		{
			name:     "censored words",
			input:    "Call me a whore again.",
			expected: "Call me a [censored] again.",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.FilterText(tt.input)
			if result != tt.expected {
				t.Errorf("FilterText() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestProfanityFilter_ContainsProfanity(t *testing.T) {
	filter := NewProfanityFilter()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"contains profanity", "What the hell is going on?", true},
		{"plural profanity", "You bastards!", true},
		{"uppercase", "SHIT happens", true},
		{"clean text", "This is a nice day.", false},
		{"embedded word", "Passing the class", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.ContainsProfanity(tt.input); got != tt.expected {
				t.Errorf("ContainsProfanity(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestShouldFilterContent(t *testing.T) {
	tests := []struct {
		rating   string
		expected bool
	}{
		{"G", true},
		{"PG", true},
		{"PG-13", true},
		{"pg13", true},
		{" pg ", true},
		{"R", false},
		{"NC-17", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			if got := ShouldFilterContent(tt.rating); got != tt.expected {
				t.Errorf("ShouldFilterContent(%q) = %v, want %v", tt.rating, got, tt.expected)
			}
		})
	}
}

func TestProfanityFilter_Integration(t *testing.T) {
	filter := NewProfanityFilter()

	input := "What the hells are you doing, you damn fool? This is bullshit!"
	expected := "What the hecks are you doing, you dang fool? This is baloney!"

	if got := filter.FilterText(input); got != expected {
		t.Errorf("FilterText() = %q, want %q", got, expected)
	}
	if filter.ContainsProfanity(expected) {
		t.Errorf("filtered text still contains profanity: %q", expected)
	}
}
