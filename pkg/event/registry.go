package event

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrDuplicateEvent = errors.New("event already registered")

// Registry stores event definitions by id.
type Registry interface {
	Register(def *Definition) error
	Get(id string) (*Definition, bool)
	List() []string
}

// MapRegistry is an in-memory Registry safe for concurrent use.
type MapRegistry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// Ensure MapRegistry implements Registry
var _ Registry = (*MapRegistry)(nil)

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{defs: make(map[string]*Definition)}
}

// NewBuiltinRegistry returns a registry preloaded with the bundled events.
func NewBuiltinRegistry() *MapRegistry {
	r := NewMapRegistry()
	for _, def := range Builtin() {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register validates def and stores it. Ids are unique.
func (r *MapRegistry) Register(def *Definition) error {
	if err := Validate(def); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

func (r *MapRegistry) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

// List returns the registered ids in sorted order.
func (r *MapRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks that a definition is self-consistent: the start step and
// every successor it references exist, and every effect is well formed.
func Validate(def *Definition) error {
	if def == nil {
		return fmt.Errorf("definition is required")
	}
	if def.ID == "" {
		return fmt.Errorf("definition id is required")
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("event %s has no steps", def.ID)
	}
	if _, ok := def.Steps[def.StartStep]; !ok {
		return fmt.Errorf("event %s: start step %q not found", def.ID, def.StartStep)
	}

	ref := func(stepID, what, target string) error {
		if target == "" {
			return nil
		}
		if _, ok := def.Steps[target]; !ok {
			return fmt.Errorf("event %s step %s: %s references unknown step %q", def.ID, stepID, what, target)
		}
		return nil
	}

	for key, step := range def.Steps {
		if step.ID != "" && step.ID != key {
			return fmt.Errorf("event %s: step key %q does not match id %q", def.ID, key, step.ID)
		}
		if err := ref(key, "next", step.Next); err != nil {
			return err
		}
		for _, eff := range step.Effects {
			if err := eff.Validate(); err != nil {
				return fmt.Errorf("event %s step %s: %w", def.ID, key, err)
			}
		}
		seen := make(map[string]bool, len(step.Choices))
		for _, c := range step.Choices {
			if c.ID == "" {
				return fmt.Errorf("event %s step %s: choice id is required", def.ID, key)
			}
			if seen[c.ID] {
				return fmt.Errorf("event %s step %s: duplicate choice %q", def.ID, key, c.ID)
			}
			seen[c.ID] = true

			if c.SkillCheck != nil {
				if err := ref(key, "choice "+c.ID+" success", c.SkillCheck.SuccessStep); err != nil {
					return err
				}
				if err := ref(key, "choice "+c.ID+" failure", c.SkillCheck.FailureStep); err != nil {
					return err
				}
			} else if err := ref(key, "choice "+c.ID, c.Next); err != nil {
				return err
			}
			for _, eff := range c.Effects {
				if err := eff.Validate(); err != nil {
					return fmt.Errorf("event %s step %s choice %s: %w", def.ID, key, c.ID, err)
				}
			}
		}
	}
	return nil
}
