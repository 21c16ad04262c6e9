package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireLock takes the session lock with SETNX. It fails fast with
// ErrLocked instead of waiting.
func (r *RedisStorage) AcquireLock(ctx context.Context, id uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, lockKey(id), token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

// ReleaseLock frees the lock. A lock that expired or was taken over by
// another holder is left alone.
func (r *RedisStorage) ReleaseLock(ctx context.Context, id uuid.UUID, token string) error {
	n, err := releaseScript.Run(ctx, r.client, []string{lockKey(id)}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	if n == 0 {
		r.logger.Warn("Session lock was not held at release", "uuid", id)
	}
	return nil
}
