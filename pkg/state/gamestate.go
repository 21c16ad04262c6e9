package state

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/stage-engine/pkg/actor"
)

// GameState is the persisted part of a stage session. The active event and
// chat transcript are not part of it and do not survive a reload.
type GameState struct {
	ID            uuid.UUID                 `json:"id"` // Unique ID per session
	PC            *actor.PC                 `json:"pc,omitempty"`
	Subjects      map[string]*actor.Subject `json:"subjects"` // heroes and servants keyed by name
	Inventory     actor.Inventory           `json:"inventory"`
	Currency      int                       `json:"currency"`
	ContentRating string                    `json:"content_rating,omitempty"`
	ExplicitMode  bool                      `json:"explicit_mode,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

func NewGameState(pc *actor.PC) *GameState {
	now := time.Now()
	return &GameState{
		ID:        uuid.New(),
		PC:        pc,
		Subjects:  make(map[string]*actor.Subject),
		Inventory: make(actor.Inventory),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Normalize fills nil maps after decoding.
func (gs *GameState) Normalize() {
	if gs.Subjects == nil {
		gs.Subjects = make(map[string]*actor.Subject)
	}
	if gs.Inventory == nil {
		gs.Inventory = make(actor.Inventory)
	}
}

// PCName returns the player character's name, or "".
func (gs *GameState) PCName() string {
	return gs.PC.Name()
}

// Subject finds a subject by name.
func (gs *GameState) Subject(name string) (*actor.Subject, bool) {
	s, ok := gs.Subjects[name]
	return s, ok && s != nil
}

// AddSubject registers a new subject. Names are unique.
func (gs *GameState) AddSubject(s *actor.Subject) error {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("subject name is required")
	}
	if _, ok := gs.Subjects[s.Name]; ok {
		return fmt.Errorf("subject %q already exists", s.Name)
	}
	if s.Status == "" {
		s.Status = actor.StatusFree
	}
	if !s.Status.Valid() {
		return fmt.Errorf("subject %q has invalid status %q", s.Name, s.Status)
	}
	gs.Normalize()
	gs.Subjects[s.Name] = s
	return nil
}

// RemoveSubject deletes a subject by name.
func (gs *GameState) RemoveSubject(name string) {
	delete(gs.Subjects, name)
}

// Heroes returns non-servant subjects sorted by name.
func (gs *GameState) Heroes() []*actor.Subject {
	return gs.filter(func(s *actor.Subject) bool { return !s.IsServant() })
}

// Servants returns converted subjects sorted by name.
func (gs *GameState) Servants() []*actor.Subject {
	return gs.filter(func(s *actor.Subject) bool { return s.IsServant() })
}

func (gs *GameState) filter(keep func(*actor.Subject) bool) []*actor.Subject {
	out := make([]*actor.Subject, 0, len(gs.Subjects))
	for _, s := range gs.Subjects {
		if s != nil && keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AdjustCurrency applies delta without going below zero and returns the new balance.
func (gs *GameState) AdjustCurrency(delta int) int {
	gs.Currency += delta
	if gs.Currency < 0 {
		gs.Currency = 0
	}
	return gs.Currency
}
