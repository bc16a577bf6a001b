package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads adaptive overrides from a Redis hash so operators can
// retune a fleet without touching each database.
type RedisSource struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
}

// NewRedisSource connects lazily to addr and reads the hash at key.
func NewRedisSource(addr, key string) *RedisSource {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return NewRedisSourceWithClient(client, key)
}

// NewRedisSourceWithClient wraps an existing client.
func NewRedisSourceWithClient(client redis.UniversalClient, key string) *RedisSource {
	return &RedisSource{client: client, key: key, timeout: 2 * time.Second}
}

func (*RedisSource) Name() string { return "redis" }

func (r *RedisSource) Values(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", r.key, err)
	}
	return values, nil
}

// Put writes a single override into the hash.
func (r *RedisSource) Put(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", r.key, err)
	}
	return nil
}

// Close releases the client.
func (r *RedisSource) Close() error {
	return r.client.Close()
}
