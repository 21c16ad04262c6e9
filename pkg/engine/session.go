// Package engine is the per-session narrative state machine: scripted event
// traversal, the conditioning sub-simulation and the chat phase that drives
// the text generator.
//
// A Session is not safe for concurrent use. Callers serving many players keep
// one Session per player and serialize calls into it.
package engine

import (
	"io"
	"log/slog"

	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/narrative"
	"github.com/jwebster45206/stage-engine/pkg/skillcheck"
	"github.com/jwebster45206/stage-engine/pkg/state"
	"github.com/jwebster45206/stage-engine/pkg/textfilter"
)

// Session owns one player's game state plus the ephemeral active event and
// chat transcript.
type Session struct {
	state   *state.GameState
	catalog *conditioning.Catalog
	events  event.Registry
	hooks   *event.Hooks
	custom  event.CustomEffectHandler
	gen     TextGenerator
	params  GenerationParams
	cleaner *textfilter.ReplyCleaner
	roller  skillcheck.Roller
	logger  *slog.Logger

	active     *event.ActiveEvent
	transcript []chat.Message
}

// Option configures a Session.
type Option func(*Session)

// WithCatalog replaces the built-in conditioning catalog.
func WithCatalog(c *conditioning.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithRegistry replaces the built-in event registry.
func WithRegistry(r event.Registry) Option {
	return func(s *Session) { s.events = r }
}

// WithHooks sets the step entry hook table.
func WithHooks(h *event.Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// WithCustomEffects sets the handler for custom effects.
func WithCustomEffects(h event.CustomEffectHandler) Option {
	return func(s *Session) { s.custom = h }
}

// WithGenerator sets the text generator used by the chat phase.
func WithGenerator(g TextGenerator) Option {
	return func(s *Session) { s.gen = g }
}

// WithGenerationParams overrides DefaultGenerationParams.
func WithGenerationParams(p GenerationParams) Option {
	return func(s *Session) { s.params = p }
}

// WithRoller sets the dice roller for skill checks.
func WithRoller(r skillcheck.Roller) Option {
	return func(s *Session) { s.roller = r }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession wraps gs. A nil gs starts an empty game.
func NewSession(gs *state.GameState, opts ...Option) *Session {
	if gs == nil {
		gs = state.NewGameState(nil)
	}
	gs.Normalize()
	s := &Session{
		state:   gs,
		catalog: conditioning.Default(),
		events:  event.NewBuiltinRegistry(),
		params:  DefaultGenerationParams(),
		cleaner: textfilter.NewReplyCleaner(),
		roller:  skillcheck.Random,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the session's game state. The pointer is shared; callers
// persisting it must not mutate it concurrently with engine calls.
func (s *Session) State() *state.GameState {
	return s.state
}

// Catalog returns the conditioning catalog in use.
func (s *Session) Catalog() *conditioning.Catalog {
	return s.catalog
}

// Events returns the event registry in use.
func (s *Session) Events() event.Registry {
	return s.events
}

// HasItem reports whether at least qty of item is held.
func (s *Session) HasItem(item string, qty int) bool {
	return s.state.Inventory.Has(item, qty)
}

// vars builds the placeholder bag for the active target.
func (s *Session) vars(target string) narrative.Vars {
	v := narrative.NewVars(target, s.state.PCName())
	if s.active != nil {
		for k, val := range s.active.Vars {
			if _, reserved := v[k]; !reserved {
				v[k] = val
			}
		}
	}
	return v
}

func (s *Session) hookContext(ae *event.ActiveEvent) event.HookContext {
	return event.HookContext{
		EventID: ae.DefinitionID,
		StepID:  ae.CurrentStepID,
		Target:  ae.Target,
		Vars:    ae.Vars,
	}
}
