// Package skillcheck implements the percentile skill check used by event
// choices and conditioning actions.
package skillcheck

import (
	"fmt"
	"math/rand/v2"
)

// ForcedSuccessTotal is the synthetic total reported for a forced success.
const ForcedSuccessTotal = 999

// Result is the outcome of a single skill check.
type Result struct {
	Skill      string `json:"skill,omitempty"`
	SkillValue int    `json:"skill_value"`
	Roll       int    `json:"roll"`
	Modifier   int    `json:"modifier,omitempty"`
	Total      int    `json:"total"`
	Difficulty int    `json:"difficulty"`
	Success    bool   `json:"success"`
	Forced     bool   `json:"forced,omitempty"`
}

// String formats the result for player-facing messages.
func (r Result) String() string {
	outcome := "failure"
	if r.Success {
		outcome = "success"
	}
	if r.Forced {
		return fmt.Sprintf("%s check (forced %s)", r.Skill, outcome)
	}
	return fmt.Sprintf("%s check: rolled %d, total %d vs %d (%s)", r.Skill, r.Roll, r.Total, r.Difficulty, outcome)
}

// Roller produces a percentile roll in [1,100].
type Roller interface {
	Roll() int
}

// RollerFunc adapts a function to the Roller interface.
type RollerFunc func() int

func (f RollerFunc) Roll() int { return f() }

// Fixed returns a Roller that always rolls n.
func Fixed(n int) Roller {
	return RollerFunc(func() int { return n })
}

// Random is the default uniform d100 roller.
var Random Roller = RollerFunc(func() int { return rand.IntN(100) + 1 })

// Roll resolves a check: total = roll + floor(skill/2) + modifier, success when total >= difficulty.
func Roll(r Roller, skill, difficulty, modifier int) Result {
	if r == nil {
		r = Random
	}
	roll := r.Roll()
	total := roll + floorHalf(skill) + modifier
	return Result{
		SkillValue: skill,
		Roll:       roll,
		Modifier:   modifier,
		Total:      total,
		Difficulty: difficulty,
		Success:    total >= difficulty,
	}
}

// RollSkillCheck resolves a check with the default random roller.
func RollSkillCheck(skill, difficulty, modifier int) Result {
	return Roll(Random, skill, difficulty, modifier)
}

// Force pins the outcome of a check for debugging and tests.
type Force string

const (
	ForceNone    Force = ""
	ForceSuccess Force = "success"
	ForceFailure Force = "failure"
)

// ParseForce converts a request value into a Force.
func ParseForce(s string) (Force, error) {
	switch Force(s) {
	case ForceNone, ForceSuccess, ForceFailure:
		return Force(s), nil
	default:
		return ForceNone, fmt.Errorf("invalid force result %q", s)
	}
}

// IsSet reports whether f pins an outcome.
func (f Force) IsSet() bool { return f == ForceSuccess || f == ForceFailure }

// Forced returns the synthetic result for a pinned outcome: roll 100 and
// ForcedSuccessTotal on success, roll 1 and total 0 on failure.
func Forced(success bool, skill string, skillValue, difficulty int) Result {
	res := Result{
		Skill:      skill,
		SkillValue: skillValue,
		Difficulty: difficulty,
		Success:    success,
		Forced:     true,
	}
	if success {
		res.Roll = 100
		res.Total = ForcedSuccessTotal
	} else {
		res.Roll = 1
		res.Total = 0
	}
	return res
}

// floorHalf is floor(n/2), also for negative skill values.
func floorHalf(n int) int {
	if n >= 0 {
		return n / 2
	}
	return -((-n + 1) / 2)
}
