package engine

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
	"github.com/jwebster45206/stage-engine/pkg/state"
)

// stubGenerator returns queued replies in order and records every call.
type stubGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
	params  []GenerationParams
}

func (g *stubGenerator) GenerateText(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.params = append(g.params, params)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "*looks away*", nil
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// looseRegistry stores definitions without validating them.
type looseRegistry map[string]*event.Definition

func (r looseRegistry) Register(def *event.Definition) error {
	r[def.ID] = def
	return nil
}

func (r looseRegistry) Get(id string) (*event.Definition, bool) {
	def, ok := r[id]
	return def, ok
}

func (r looseRegistry) List() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func newTestPC(t *testing.T) *actor.PC {
	t.Helper()
	pc, err := actor.NewPCFromSpec(&actor.PCSpec{ID: "rook", Name: "Rook"})
	if err != nil {
		t.Fatalf("NewPCFromSpec() error = %v", err)
	}
	return pc
}

func newTestSession(t *testing.T, gen TextGenerator, opts ...Option) *Session {
	t.Helper()
	gs := state.NewGameState(newTestPC(t))
	base := []Option{WithRoller(skillcheck.Fixed(50))}
	if gen != nil {
		base = append(base, WithGenerator(gen))
	}
	return NewSession(gs, append(base, opts...)...)
}

// startChat starts the brainwashing event on Sable, picks the gentle
// strategy and opens the chat phase.
func startChat(t *testing.T, s *Session) {
	t.Helper()
	if _, err := s.StartEvent(event.Brainwashing, "Sable"); err != nil {
		t.Fatalf("StartEvent() error = %v", err)
	}
	if _, err := s.AdvanceEvent("gentle", skillcheck.ForceNone); err != nil {
		t.Fatalf("AdvanceEvent(gentle) error = %v", err)
	}
	if err := s.StartEventChat(); err != nil {
		t.Fatalf("StartEventChat() error = %v", err)
	}
}

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession(nil)
	if s.State() == nil {
		t.Fatal("State() is nil")
	}
	if s.Catalog() == nil {
		t.Error("Catalog() is nil")
	}
	ids := s.Events().List()
	if len(ids) != 3 {
		t.Errorf("Events().List() = %v, want 3 built-in events", ids)
	}
	if s.ActiveEvent() != nil {
		t.Error("new session should have no active event")
	}
}

func TestSession_HasItem(t *testing.T) {
	s := newTestSession(t, nil)
	s.State().Inventory.Add("Blindfold", 2)

	if !s.HasItem("Blindfold", 2) {
		t.Error("HasItem(Blindfold, 2) = false")
	}
	if s.HasItem("Blindfold", 3) {
		t.Error("HasItem(Blindfold, 3) = true")
	}
	if s.HasItem("Pendulum", 1) {
		t.Error("HasItem(Pendulum, 1) = true")
	}
}
