package event

import (
	"fmt"

	"github.com/jwebster45206/stage-engine/pkg/actor"
)

// EffectKind is the closed set of effect tags.
type EffectKind string

const (
	EffectConditioning EffectKind = "conditioning"
	EffectAffection    EffectKind = "affection"
	EffectObedience    EffectKind = "obedience"
	EffectCurrency     EffectKind = "currency"
	EffectAddItem      EffectKind = "add_item"
	EffectRemoveItem   EffectKind = "remove_item"
	EffectSetStatus    EffectKind = "set_status"
	EffectConvert      EffectKind = "convert"
	EffectSkill        EffectKind = "skill"
	EffectCustom       EffectKind = "custom"
)

// Effect is a state mutation applied by a step or choice. Which fields are
// read depends on Kind. Target falls back to the active event's target.
type Effect struct {
	Kind      EffectKind   `json:"kind"`
	Target    string       `json:"target,omitempty"`
	Value     int          `json:"value,omitempty"`
	Item      string       `json:"item,omitempty"`
	Status    actor.Status `json:"status,omitempty"`
	Skill     string       `json:"skill,omitempty"`
	Archetype string       `json:"archetype,omitempty"`
	Tag       string       `json:"tag,omitempty"`
}

// Validate checks that the fields Kind needs are present.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectConditioning, EffectAffection, EffectObedience, EffectCurrency:
		return nil
	case EffectAddItem, EffectRemoveItem:
		if e.Item == "" {
			return fmt.Errorf("%s effect requires an item", e.Kind)
		}
	case EffectSetStatus:
		if !e.Status.Valid() {
			return fmt.Errorf("set_status effect has invalid status %q", e.Status)
		}
	case EffectConvert:
		if e.Archetype == "" {
			return fmt.Errorf("convert effect requires an archetype")
		}
	case EffectSkill:
		if e.Skill == "" {
			return fmt.Errorf("skill effect requires a skill")
		}
	case EffectCustom:
		if e.Tag == "" {
			return fmt.Errorf("custom effect requires a tag")
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

// Quantity is the item count for item effects, defaulting to 1.
func (e Effect) Quantity() int {
	if e.Value <= 0 {
		return 1
	}
	return e.Value
}

// TargetOr returns the effect's explicit target or fallback.
func (e Effect) TargetOr(fallback string) string {
	if e.Target != "" {
		return e.Target
	}
	return fallback
}
