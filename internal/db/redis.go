package db

import (
	"context"
	"fmt"
	"time"

	"retailpos-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects a redis client, or returns nil when no REDIS_URL is
// configured. Callers treat a nil client as "run-lock disabled".
func NewRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
