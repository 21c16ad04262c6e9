// Package conditioning holds the static conditioning catalog (actions,
// strategies, archetypes) and the pure rules for tiers and availability.
package conditioning

import (
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
)

// Check is a skill check attached to an action.
type Check struct {
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`
}

// Action is a single conditioning move.
type Action struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	Category         string `json:"category"`
	RequiresItem     string `json:"requires_item,omitempty"`
	ConsumeItem      bool   `json:"consume_item,omitempty"` // RequiresItem is used up on execution
	GrantsItem       string `json:"grants_item,omitempty"`  // given to the player on success
	Check            *Check `json:"check,omitempty"`
	SuccessDelta     int    `json:"success_delta"`
	FailDelta        int    `json:"fail_delta"`
	MinConditioning  int    `json:"min_conditioning"`
	MaxConditioning  *int   `json:"max_conditioning,omitempty"`
	CooldownMessages int    `json:"cooldown_messages,omitempty"`
	SuccessText      string `json:"success_text"`
	FailText         string `json:"fail_text,omitempty"`
}

// SkillBonus is a flat bonus a strategy adds to checks of one skill.
type SkillBonus struct {
	Skill string `json:"skill"`
	Bonus int    `json:"bonus"`
}

// Strategy is the player's chosen approach for a conditioning session.
type Strategy struct {
	ID           string      `json:"id"`
	Label        string      `json:"label"`
	Context      string      `json:"context"`
	BonusActions []string    `json:"bonus_actions,omitempty"`
	SkillBonus   *SkillBonus `json:"skill_bonus,omitempty"`
}

// BonusFor returns the strategy's bonus for skill, or 0.
func (s *Strategy) BonusFor(skill string) int {
	if s == nil || s.SkillBonus == nil || s.SkillBonus.Skill != skill {
		return 0
	}
	return s.SkillBonus.Bonus
}

// Unlocks reports whether the strategy lists actionID as a bonus action.
func (s *Strategy) Unlocks(actionID string) bool {
	if s == nil {
		return false
	}
	for _, id := range s.BonusActions {
		if id == actionID {
			return true
		}
	}
	return false
}

// Archetype is the personality template applied when a broken subject is
// converted into a servant.
type Archetype struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	Description   string   `json:"description"`
	Traits        []string `json:"traits"`
	BaseAffection int      `json:"base_affection"`
	BaseObedience int      `json:"base_obedience"`
	Directive     string   `json:"directive"`
}

// Result records one executed conditioning action.
type Result struct {
	ActionID         string             `json:"action_id"`
	Success          bool               `json:"success"`
	Delta            int                `json:"delta"`
	Message          string             `json:"message"`
	Directive        string             `json:"directive,omitempty"`
	Check            *skillcheck.Result `json:"check,omitempty"`
	NewConditioning  int                `json:"new_conditioning"`
	ThresholdCrossed Tier               `json:"threshold_crossed,omitempty"`
}

func intPtr(v int) *int { return &v }
