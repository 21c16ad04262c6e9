// Package sessions keeps one engine.Session per game and serializes access
// to it. Game state is persisted after every mutating call; the active event
// and chat transcript live only in this process.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/stage-engine/internal/storage"
	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/engine"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/state"
)

const DefaultLockTTL = 2 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionBusy is returned when another request is using the session.
	ErrSessionBusy = errors.New("session is busy")
)

// Manager owns the live sessions.
type Manager struct {
	store   storage.Storage
	events  event.Registry
	opts    []engine.Option
	lockTTL time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
}

type entry struct {
	mu       sync.Mutex
	session  *engine.Session
	lastUsed time.Time
}

// NewManager creates a manager. events is shared by every session and opts
// are applied to each new engine.Session.
func NewManager(store storage.Storage, events event.Registry, logger *slog.Logger, opts ...engine.Option) *Manager {
	if events == nil {
		events = event.NewBuiltinRegistry()
	}
	return &Manager{
		store:    store,
		events:   events,
		opts:     opts,
		lockTTL:  DefaultLockTTL,
		logger:   logger,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// SetLockTTL sets how long the storage lock survives a crashed holder.
func (m *Manager) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		m.lockTTL = ttl
	}
}

// Events returns the shared event registry.
func (m *Manager) Events() event.Registry {
	return m.events
}

// The default player character. Directive text names the PC in the third
// person, so the default is a name rather than "You".
const (
	DefaultPCID   = "player"
	DefaultPCName = "Warden"
)

// Create starts a new game. pcID selects a PC spec from storage; an empty
// pcID uses a default player character.
func (m *Manager) Create(ctx context.Context, pcID string) (*state.GameState, error) {
	spec := &actor.PCSpec{ID: DefaultPCID, Name: DefaultPCName}
	if pcID != "" {
		loaded, err := m.store.GetPCSpec(ctx, pcID)
		if err != nil {
			return nil, fmt.Errorf("failed to load pc %s: %w", pcID, err)
		}
		spec = loaded
	}
	pc, err := actor.NewPCFromSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to build pc: %w", err)
	}

	gs := state.NewGameState(pc)
	if err := m.store.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[gs.ID] = &entry{session: m.newSession(gs), lastUsed: time.Now()}
	m.mu.Unlock()

	m.logger.Info("Session created", "session_id", gs.ID, "pc", pc.Name())
	return gs, nil
}

// Update runs fn with exclusive access to the session and saves the game
// state afterwards. State is saved even when fn returns an error.
func (m *Manager) Update(ctx context.Context, id uuid.UUID, fn func(*engine.Session) error) error {
	return m.run(ctx, id, true, fn)
}

// View runs fn with exclusive access to the session without saving.
func (m *Manager) View(ctx context.Context, id uuid.UUID, fn func(*engine.Session) error) error {
	return m.run(ctx, id, false, fn)
}

// Delete removes the session from memory and storage.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return m.store.DeleteGameState(ctx, id)
}

// Sweep drops sessions idle for longer than maxIdle from memory. Their game
// state stays in storage and is reloaded on the next request.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(maxIdle); n > 0 {
				m.logger.Debug("Evicted idle sessions", "count", n)
			}
		}
	}
}

// Len is the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) run(ctx context.Context, id uuid.UUID, save bool, fn func(*engine.Session) error) error {
	e, err := m.entry(ctx, id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()

	token, err := m.store.AcquireLock(ctx, id, m.lockTTL)
	if err != nil {
		if errors.Is(err, storage.ErrLocked) {
			return ErrSessionBusy
		}
		return err
	}
	defer func() {
		if err := m.store.ReleaseLock(context.WithoutCancel(ctx), id, token); err != nil {
			m.logger.Warn("Failed to release session lock", "session_id", id, "error", err)
		}
	}()

	fnErr := fn(e.session)
	if save {
		if err := m.store.SaveGameState(ctx, id, e.session.State()); err != nil {
			return errors.Join(fnErr, err)
		}
	}
	return fnErr
}

// entry returns the cached session, loading its game state on a miss.
func (m *Manager) entry(ctx context.Context, id uuid.UUID) (*entry, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return e, nil
	}

	gs, err := m.store.LoadGameState(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have loaded it meanwhile
	if e, ok := m.sessions[id]; ok {
		return e, nil
	}
	e = &entry{session: m.newSession(gs), lastUsed: time.Now()}
	m.sessions[id] = e
	m.logger.Debug("Session loaded from storage", "session_id", id)
	return e, nil
}

func (m *Manager) newSession(gs *state.GameState) *engine.Session {
	opts := append([]engine.Option{
		engine.WithRegistry(m.events),
		engine.WithLogger(m.logger.With("session_id", gs.ID.String())),
	}, m.opts...)
	return engine.NewSession(gs, opts...)
}
