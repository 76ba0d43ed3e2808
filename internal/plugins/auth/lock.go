package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockKeyPrefix is the Redis key prefix for in-flight submission locks.
const lockKeyPrefix = "login_lock:"

// SubmitLock keeps a form instance from running two credential checks at
// once. Keys are the form_id embedded in each rendered login form.
type SubmitLock interface {
	// Acquire returns false if the key is already held.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisSubmitLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSubmitLock creates a SETNX-based lock. ttl bounds how long a
// crashed request can hold a form instance.
func NewRedisSubmitLock(client *redis.Client, ttl time.Duration) SubmitLock {
	return &redisSubmitLock{client: client, ttl: ttl}
}

func (l *redisSubmitLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring submit lock: %w", err)
	}
	return ok, nil
}

func (l *redisSubmitLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("releasing submit lock: %w", err)
	}
	return nil
}

// acquireOrProceed takes the lock and fails open when Redis is unavailable.
// held is true only when another submission owns the key.
func acquireOrProceed(ctx context.Context, lock SubmitLock, key string) (acquired, held bool) {
	ok, err := lock.Acquire(ctx, key)
	if err != nil {
		slog.Warn("submit lock unavailable, proceeding", slog.Any("error", err))
		return false, false
	}
	return ok, !ok
}
