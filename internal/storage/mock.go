package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/state"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID][]byte
	locks      map[uuid.UUID]string
	events     map[string]*event.Definition
	pcSpecs    map[string]*actor.PCSpec
	pingError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		gamestates: make(map[uuid.UUID][]byte),
		locks:      make(map[uuid.UUID]string),
		events:     make(map[string]*event.Definition),
		pcSpecs:    make(map[string]*actor.PCSpec),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState stores a JSON copy so later mutations of gs are not visible.
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	gs.UpdatedAt = time.Now()
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamestates[id] = data
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	data, ok := m.gamestates[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var gs state.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	gs.Normalize()
	return &gs, nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	delete(m.locks, id)
	return nil
}

// AcquireLock ignores ttl; locks are held until released.
func (m *MockStorage) AcquireLock(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[id]; held {
		return "", ErrLocked
	}
	token := uuid.NewString()
	m.locks[id] = token
	return token, nil
}

func (m *MockStorage) ReleaseLock(ctx context.Context, id uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] == token {
		delete(m.locks, id)
	}
	return nil
}

// AddEvent adds an event definition for GetEvent and ListEvents.
func (m *MockStorage) AddEvent(def *event.Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[def.ID] = def
}

func (m *MockStorage) ListEvents(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.events))
	for id := range m.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockStorage) GetEvent(ctx context.Context, eventID string) (*event.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	return def, nil
}

// AddPCSpec adds a PC spec to the mock storage
func (m *MockStorage) AddPCSpec(pcID string, spec *actor.PCSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pcSpecs[pcID] = spec
}

func (m *MockStorage) GetPCSpec(ctx context.Context, pcID string) (*actor.PCSpec, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.pcSpecs[pcID]
	if !ok {
		return nil, fmt.Errorf("pc %s: %w", pcID, ErrNotFound)
	}
	clone := *spec
	return &clone, nil
}

func (m *MockStorage) ListPCs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.pcSpecs))
	for id := range m.pcSpecs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
