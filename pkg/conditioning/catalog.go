package conditioning

import (
	"fmt"
)

// Catalog is a read-only lookup of actions, strategies and archetypes.
type Catalog struct {
	actions     map[string]Action
	actionOrder []string
	strategies  map[string]Strategy
	stratOrder  []string
	archetypes  map[string]Archetype
	archOrder   []string
	bonus       map[string]bool
}

// NewCatalog indexes the given entries. Duplicate ids and strategy bonus
// lists that name unknown actions are rejected.
func NewCatalog(actions []Action, strategies []Strategy, archetypes []Archetype) (*Catalog, error) {
	c := &Catalog{
		actions:    make(map[string]Action, len(actions)),
		strategies: make(map[string]Strategy, len(strategies)),
		archetypes: make(map[string]Archetype, len(archetypes)),
		bonus:      make(map[string]bool),
	}

	for _, a := range actions {
		if a.ID == "" {
			return nil, fmt.Errorf("action id is required")
		}
		if _, dup := c.actions[a.ID]; dup {
			return nil, fmt.Errorf("duplicate action %q", a.ID)
		}
		c.actions[a.ID] = a
		c.actionOrder = append(c.actionOrder, a.ID)
	}

	for _, s := range strategies {
		if s.ID == "" {
			return nil, fmt.Errorf("strategy id is required")
		}
		if _, dup := c.strategies[s.ID]; dup {
			return nil, fmt.Errorf("duplicate strategy %q", s.ID)
		}
		for _, id := range s.BonusActions {
			if _, ok := c.actions[id]; !ok {
				return nil, fmt.Errorf("strategy %q lists unknown bonus action %q", s.ID, id)
			}
			c.bonus[id] = true
		}
		c.strategies[s.ID] = s
		c.stratOrder = append(c.stratOrder, s.ID)
	}

	for _, a := range archetypes {
		if a.ID == "" {
			return nil, fmt.Errorf("archetype id is required")
		}
		if _, dup := c.archetypes[a.ID]; dup {
			return nil, fmt.Errorf("duplicate archetype %q", a.ID)
		}
		c.archetypes[a.ID] = a
		c.archOrder = append(c.archOrder, a.ID)
	}

	return c, nil
}

var defaultCatalog = mustCatalog(builtinActions, builtinStrategies, builtinArchetypes)

// Default returns the built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

func mustCatalog(actions []Action, strategies []Strategy, archetypes []Archetype) *Catalog {
	c, err := NewCatalog(actions, strategies, archetypes)
	if err != nil {
		panic(err)
	}
	return c
}

// Action looks up an action by id.
func (c *Catalog) Action(id string) (Action, bool) {
	a, ok := c.actions[id]
	return a, ok
}

// Actions returns every action in registration order.
func (c *Catalog) Actions() []Action {
	out := make([]Action, 0, len(c.actionOrder))
	for _, id := range c.actionOrder {
		out = append(out, c.actions[id])
	}
	return out
}

// Strategy looks up a strategy by id.
func (c *Catalog) Strategy(id string) (*Strategy, bool) {
	s, ok := c.strategies[id]
	if !ok {
		return nil, false
	}
	return &s, true
}

// Strategies returns every strategy in registration order.
func (c *Catalog) Strategies() []Strategy {
	out := make([]Strategy, 0, len(c.stratOrder))
	for _, id := range c.stratOrder {
		out = append(out, c.strategies[id])
	}
	return out
}

// Archetype looks up an archetype by id.
func (c *Catalog) Archetype(id string) (Archetype, bool) {
	a, ok := c.archetypes[id]
	return a, ok
}

// Archetypes returns every archetype in registration order.
func (c *Catalog) Archetypes() []Archetype {
	out := make([]Archetype, 0, len(c.archOrder))
	for _, id := range c.archOrder {
		out = append(out, c.archetypes[id])
	}
	return out
}

// IsBonusAction reports whether any strategy lists id as a bonus action.
func (c *Catalog) IsBonusAction(id string) bool {
	return c.bonus[id]
}
