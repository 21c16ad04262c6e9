package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/stage-engine/pkg/actor"
	"github.com/jwebster45206/stage-engine/pkg/event"
	"github.com/jwebster45206/stage-engine/pkg/state"
)

// DefaultGameStateTTL is how long an untouched session survives in Redis.
const DefaultGameStateTTL = 24 * time.Hour

var (
	// ErrNotFound is returned when a filesystem resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLocked is returned when another request holds the session lock.
	ErrLocked = errors.New("session is locked")
)

// Storage defines a unified interface for all storage operations.
// Game state and session locks live in Redis; event definitions and PC
// specs are read from the data directory.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations (Redis-backed)
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Session locks (Redis-backed). AcquireLock returns a token that must be
	// handed back to ReleaseLock.
	AcquireLock(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, id uuid.UUID, token string) error

	// Event definitions (filesystem-backed)
	ListEvents(ctx context.Context) ([]string, error)
	GetEvent(ctx context.Context, eventID string) (*event.Definition, error)

	// PC operations (filesystem-backed, returns PCSpec not PC)
	// Use actor.NewPCFromSpec to build the full PC from the returned spec
	GetPCSpec(ctx context.Context, pcID string) (*actor.PCSpec, error)
	ListPCs(ctx context.Context) ([]string, error)
}

// LoadEvents registers every event definition in the data directory with reg.
// Definitions that fail to load are skipped and returned together as one error.
func LoadEvents(ctx context.Context, s Storage, reg event.Registry) (int, error) {
	ids, err := s.ListEvents(ctx)
	if err != nil {
		return 0, err
	}
	var errs []error
	loaded := 0
	for _, id := range ids {
		def, err := s.GetEvent(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(def); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	return loaded, errors.Join(errs...)
}

func gameStateKey(id uuid.UUID) string {
	return "gamestate:" + id.String()
}

func lockKey(id uuid.UUID) string {
	return "lock:session:" + id.String()
}
