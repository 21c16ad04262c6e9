package event

import (
	"maps"

	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

// ActiveEvent is the runtime traversal of a Definition.
type ActiveEvent struct {
	DefinitionID     string                `json:"definition_id"`
	CurrentStepID    string                `json:"current_step_id"`
	Target           string                `json:"target,omitempty"`
	Log              []string              `json:"log"`
	Vars             map[string]string     `json:"vars,omitempty"`
	AppliedEffects   []Effect              `json:"applied_effects,omitempty"`
	LastSkillCheck   *skillcheck.Result    `json:"last_skill_check,omitempty"`
	ChatPhaseActive  bool                  `json:"chat_phase_active"`
	ChatMessageCount int                   `json:"chat_message_count"`
	Strategy         string                `json:"strategy,omitempty"`
	Cooldowns        map[string]int        `json:"cooldowns,omitempty"` // action id -> message count at last use
	ActionResults    []conditioning.Result `json:"action_results,omitempty"`
	LastActionResult *conditioning.Result  `json:"last_action_result,omitempty"`
	Finished         bool                  `json:"finished"` // current step is terminal
}

// NewActiveEvent positions a fresh event at startStep.
func NewActiveEvent(def *Definition, target string) *ActiveEvent {
	return &ActiveEvent{
		DefinitionID:  def.ID,
		CurrentStepID: def.StartStep,
		Target:        target,
		Log:           []string{def.StartStep},
		Vars:          make(map[string]string),
		Cooldowns:     make(map[string]int),
	}
}

// Clone returns a deep copy so callers cannot mutate engine state.
func (a *ActiveEvent) Clone() *ActiveEvent {
	if a == nil {
		return nil
	}
	c := *a
	c.Log = append([]string(nil), a.Log...)
	c.Vars = maps.Clone(a.Vars)
	c.AppliedEffects = append([]Effect(nil), a.AppliedEffects...)
	c.Cooldowns = maps.Clone(a.Cooldowns)
	if a.LastSkillCheck != nil {
		sc := *a.LastSkillCheck
		c.LastSkillCheck = &sc
	}
	c.ActionResults = make([]conditioning.Result, len(a.ActionResults))
	for i, r := range a.ActionResults {
		c.ActionResults[i] = cloneResult(r)
	}
	if a.LastActionResult != nil {
		r := cloneResult(*a.LastActionResult)
		c.LastActionResult = &r
	}
	return &c
}

func cloneResult(r conditioning.Result) conditioning.Result {
	if r.Check != nil {
		chk := *r.Check
		r.Check = &chk
	}
	return r
}

// RecentResults returns up to n of the latest action results, oldest first.
func (a *ActiveEvent) RecentResults(n int) []conditioning.Result {
	if n <= 0 || len(a.ActionResults) == 0 {
		return nil
	}
	start := len(a.ActionResults) - n
	if start < 0 {
		start = 0
	}
	return a.ActionResults[start:]
}
