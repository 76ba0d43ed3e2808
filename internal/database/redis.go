package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/bookworm/internal/config"
)

// NewRedis creates a new Redis client from the given config. It parses the
// URL, connects, and pings to verify connectivity before returning.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ping := func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	if err := pingWithBackoff("redis", 3, 500*time.Millisecond, ping); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
