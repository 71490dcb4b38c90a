package job

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker with SETNX + TTL. The TTL is the safety net:
// a crashed run frees its lock after at most one TTL.
type RedisLocker struct {
	Client *redis.Client
}

func (l RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, key, 1, ttl).Result()
}

func (l RedisLocker) Release(ctx context.Context, key string) error {
	return l.Client.Del(ctx, key).Err()
}
