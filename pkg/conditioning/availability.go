package conditioning

import (
	"fmt"

	"github.com/jwebster45206/stage-engine/pkg/actor"
)

// State is everything availability depends on.
type State struct {
	Conditioning int
	Strategy     string
	Inventory    actor.Inventory
	MessageCount int            // chat messages delivered in the current phase
	LastUsed     map[string]int // action id -> MessageCount when last executed
}

// Availability is an action as offered to the player.
type Availability struct {
	Action     Action `json:"action"`
	Locked     bool   `json:"locked"`
	LockReason string `json:"lock_reason,omitempty"`
}

// Available lists the actions visible for st in catalog order. Actions over
// their maximum and bonus actions the current strategy does not unlock are
// hidden. Visible actions may still be locked.
func (c *Catalog) Available(st State) []Availability {
	out := make([]Availability, 0, len(c.actionOrder))
	for _, id := range c.actionOrder {
		if av, visible := c.Evaluate(id, st); visible {
			out = append(out, av)
		}
	}
	return out
}

// Evaluate computes the availability of one action. visible is false for
// unknown or hidden actions.
func (c *Catalog) Evaluate(id string, st State) (av Availability, visible bool) {
	a, ok := c.actions[id]
	if !ok {
		return Availability{}, false
	}
	if a.MaxConditioning != nil && st.Conditioning > *a.MaxConditioning {
		return Availability{}, false
	}
	if c.bonus[id] {
		strat, ok := c.Strategy(st.Strategy)
		if !ok || !strat.Unlocks(id) {
			return Availability{}, false
		}
	}

	av = Availability{Action: a}
	switch {
	case st.Conditioning < a.MinConditioning:
		av.Locked = true
		av.LockReason = fmt.Sprintf("Requires conditioning %d (currently %d)", a.MinConditioning, st.Conditioning)
	case a.RequiresItem != "" && !st.Inventory.Has(a.RequiresItem, 1):
		av.Locked = true
		av.LockReason = fmt.Sprintf("Requires %s", a.RequiresItem)
	default:
		if remaining := CooldownRemaining(a, st); remaining > 0 {
			av.Locked = true
			av.LockReason = fmt.Sprintf("Cooling down (%d more messages)", remaining)
		}
	}
	return av, true
}

// CooldownRemaining is the number of chat messages still needed before a
// can be used again, or 0.
func CooldownRemaining(a Action, st State) int {
	if a.CooldownMessages <= 0 || st.LastUsed == nil {
		return 0
	}
	used, ok := st.LastUsed[a.ID]
	if !ok {
		return 0
	}
	elapsed := st.MessageCount - used
	if elapsed >= a.CooldownMessages {
		return 0
	}
	return a.CooldownMessages - elapsed
}
