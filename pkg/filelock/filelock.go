// Package filelock provides the per-file distributed lock that guarantees at
// most one in-flight processing attempt per file name across agent instances.
package filelock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Locker is the lock collaborator. Acquire returns false when the lock is
// already held elsewhere. Locks carry an expiry so a crashed holder cannot
// wedge a file forever.
type Locker interface {
	Acquire(ctx context.Context, scopeID, fileName string) (bool, error)
	Release(ctx context.Context, scopeID, fileName string) (bool, error)
}

// RedisLocker implements Locker with SET NX + TTL on Redis.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisLocker wraps an established Redis client. ttl bounds how long a
// lock can outlive its holder.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, logger: logger}
}

// Acquire tries to take the lock for fileName within scopeID.
func (l *RedisLocker) Acquire(ctx context.Context, scopeID, fileName string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(scopeID, fileName), "locked", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for %q: %w", fileName, err)
	}
	if !ok {
		l.logger.Debug().Str("file", fileName).Msg("File lock already held")
	}
	return ok, nil
}

// Release drops the lock. It returns false when the lock had already expired
// or was never held.
func (l *RedisLocker) Release(ctx context.Context, scopeID, fileName string) (bool, error) {
	n, err := l.client.Del(ctx, lockKey(scopeID, fileName)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to release lock for %q: %w", fileName, err)
	}
	return n > 0, nil
}

func lockKey(scopeID, fileName string) string {
	return fmt.Sprintf("file_processing_lock.%s.%s", scopeID, fileName)
}
