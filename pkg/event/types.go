// Package event defines scripted event graphs: definitions, steps, choices,
// effects, the runtime ActiveEvent snapshot and the definition registry.
package event

// Definition is an authored event graph. It is immutable once registered.
type Definition struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	StartStep string          `json:"start_step"`
	Steps     map[string]Step `json:"steps"`
}

// Step returns the step with id, if present.
func (d *Definition) Step(id string) (Step, bool) {
	if d == nil || id == "" {
		return Step{}, false
	}
	s, ok := d.Steps[id]
	return s, ok
}

// Step is a node of the event graph.
type Step struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Speaker   string     `json:"speaker,omitempty"`
	Choices   []Choice   `json:"choices,omitempty"`
	Effects   []Effect   `json:"effects,omitempty"` // applied on entry
	Next      string     `json:"next,omitempty"`    // auto-advance successor
	IsEnding  bool       `json:"is_ending,omitempty"`
	ChatPhase *ChatPhase `json:"chat_phase,omitempty"`
}

// Choice returns the step's choice with id, if present.
func (s Step) Choice(id string) (Choice, bool) {
	for _, c := range s.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Choice is a player option on a step.
type Choice struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	Next         string      `json:"next,omitempty"`
	SkillCheck   *SkillCheck `json:"skill_check,omitempty"` // overrides Next when present
	RequiresItem string      `json:"requires_item,omitempty"`
	ConsumeItem  bool        `json:"consume_item,omitempty"`
	Effects      []Effect    `json:"effects,omitempty"`
}

// SkillCheck branches a choice on a player skill check.
type SkillCheck struct {
	Skill       string `json:"skill"`
	Difficulty  int    `json:"difficulty"`
	Modifier    int    `json:"modifier,omitempty"`
	SuccessStep string `json:"success_step"`
	FailureStep string `json:"failure_step"`
}

// ChatPhase marks a step that hosts a free-text exchange with the target.
type ChatPhase struct {
	MinMessages int    `json:"min_messages,omitempty"` // replies required before the phase may end
	Prompt      string `json:"prompt,omitempty"`       // extra scene direction for generation
}
