package event

import (
	"github.com/jwebster45206/stage-engine/pkg/actor"
)

// Built-in event ids.
const (
	Brainwashing    = "brainwashing"
	Conversion      = "conversion"
	ServantAudience = "servant_audience"
)

// Builtin returns fresh copies of the bundled event definitions.
func Builtin() []*Definition {
	return []*Definition{brainwashingEvent(), conversionEvent(), servantAudienceEvent()}
}

func brainwashingEvent() *Definition {
	return &Definition{
		ID:        Brainwashing,
		Name:      "Conditioning Session",
		Category:  "conditioning",
		StartStep: "capture_intro",
		Steps: map[string]Step{
			"capture_intro": {
				ID:   "capture_intro",
				Text: "{target} wakes in the tower cell, wrists bound in soft leather. {pc} sits across the room, watching. How will {pc} begin?",
				Effects: []Effect{
					{Kind: EffectSetStatus, Status: actor.StatusCaptured},
				},
				Choices: []Choice{
					{ID: "gentle", Label: "Gentle persuasion", Next: "session"},
					{ID: "firm", Label: "Firm discipline", Next: "session"},
					{ID: "hypnotic", Label: "Hypnotic suggestion", Next: "session"},
				},
			},
			"session": {
				ID:        "session",
				Text:      "The session begins. {target} watches {pc} warily, waiting to see what comes next.",
				Speaker:   "{target}",
				ChatPhase: &ChatPhase{MinMessages: 2, Prompt: "{target} is bound in the tower cell while {pc} works to wear down their resistance."},
				Choices: []Choice{
					{ID: "finish", Label: "End the session", Next: "aftermath"},
					{
						ID:    "press_harder",
						Label: "Press harder",
						SkillCheck: &SkillCheck{
							Skill:       actor.SkillPersuasion,
							Difficulty:  60,
							SuccessStep: "breakthrough",
							FailureStep: "setback",
						},
					},
				},
			},
			"breakthrough": {
				ID:      "breakthrough",
				Text:    "Something gives. {target} sags in the bonds, and for a long moment does not argue at all.",
				Effects: []Effect{{Kind: EffectConditioning, Value: 5}},
				Next:    "aftermath",
			},
			"setback": {
				ID:      "setback",
				Text:    "{target} sees the push coming and braces against it. Their glare says they will remember this.",
				Effects: []Effect{{Kind: EffectAffection, Value: -5}},
				Next:    "aftermath",
			},
			"aftermath": {
				ID:       "aftermath",
				Text:     "{pc} leaves {target} to rest. The cell door closes softly.",
				IsEnding: true,
			},
		},
	}
}

func conversionEvent() *Definition {
	archetypeChoice := func(id, label string) Choice {
		return Choice{
			ID:      id,
			Label:   label,
			Next:    "bound",
			Effects: []Effect{{Kind: EffectConvert, Archetype: id}},
		}
	}
	return &Definition{
		ID:        Conversion,
		Name:      "Binding Ceremony",
		Category:  "conversion",
		StartStep: "ceremony",
		Steps: map[string]Step{
			"ceremony": {
				ID:   "ceremony",
				Text: "{target} kneels in the circle of candles, waiting for {pc} to name what they will become.",
				Choices: []Choice{
					archetypeChoice("devoted", "Devoted companion"),
					archetypeChoice("stoic", "Stoic guardian"),
					archetypeChoice("playful", "Playful attendant"),
					archetypeChoice("fierce", "Fierce protector"),
				},
			},
			"bound": {
				ID:       "bound",
				Text:     "The candles gutter out. When {target} rises, they rise as {pc}'s own.",
				IsEnding: true,
			},
		},
	}
}

func servantAudienceEvent() *Definition {
	return &Definition{
		ID:        ServantAudience,
		Name:      "Private Audience",
		Category:  "servant",
		StartStep: "audience",
		Steps: map[string]Step{
			"audience": {
				ID:        "audience",
				Text:      "{target} enters the study and waits for {pc} to speak.",
				Speaker:   "{target}",
				ChatPhase: &ChatPhase{MinMessages: 1, Prompt: "{target} attends {pc} privately in the study."},
				Choices: []Choice{
					{
						ID:      "praise",
						Label:   "Offer praise",
						Next:    "dismissed",
						Effects: []Effect{{Kind: EffectAffection, Value: 5}},
					},
					{
						ID:    "command",
						Label: "Give a difficult order",
						SkillCheck: &SkillCheck{
							Skill:       actor.SkillIntimidation,
							Difficulty:  30,
							SuccessStep: "obeys",
							FailureStep: "balks",
						},
					},
					{ID: "dismiss", Label: "Dismiss", Next: "dismissed"},
				},
			},
			"obeys": {
				ID:      "obeys",
				Text:    "{target} bows and goes to carry out the order without a word.",
				Effects: []Effect{{Kind: EffectObedience, Value: 5}},
				Next:    "dismissed",
			},
			"balks": {
				ID:      "balks",
				Text:    "{target} hesitates a moment too long before bowing.",
				Effects: []Effect{{Kind: EffectObedience, Value: -3}},
				Next:    "dismissed",
			},
			"dismissed": {
				ID:       "dismissed",
				Text:     "{target} withdraws, leaving {pc} alone.",
				IsEnding: true,
			},
		},
	}
}
