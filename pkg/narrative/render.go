// Package narrative renders authored text templates.
//
// Every narrative field in the engine (step text, action directives, strategy
// context, prompt sections) goes through Render so that placeholder
// substitution behaves the same everywhere.
package narrative

import (
	"sort"
	"strings"
)

const (
	// KeyTarget is the placeholder for the active subject's name.
	KeyTarget = "target"
	// KeyPC is the placeholder for the player character's name.
	KeyPC = "pc"
)

// Vars maps placeholder names (without braces) to their values.
type Vars map[string]string

// NewVars returns Vars carrying the target and player character names.
func NewVars(target, pc string) Vars {
	return Vars{KeyTarget: target, KeyPC: pc}
}

// With returns a copy of v with key set to value.
func (v Vars) With(key, value string) Vars {
	out := make(Vars, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[key] = value
	return out
}

// Render replaces every {key} in text with its value from vars.
// Unknown placeholders are left untouched. An empty target or pc value
// renders as a neutral noun so generated prose never shows "{target}".
func Render(text string, vars Vars) string {
	if text == "" || !strings.Contains(text, "{") {
		return text
	}

	keys := make([]string, 0, len(vars)+2)
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2+4)
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		val := vars[k]
		if val == "" {
			val = fallback(k)
		}
		pairs = append(pairs, "{"+k+"}", val)
		seen[k] = true
	}
	for _, k := range []string{KeyTarget, KeyPC} {
		if !seen[k] {
			pairs = append(pairs, "{"+k+"}", fallback(k))
		}
	}

	return strings.NewReplacer(pairs...).Replace(text)
}

func fallback(key string) string {
	switch key {
	case KeyTarget:
		return "the captive"
	case KeyPC:
		return "you"
	default:
		return ""
	}
}
