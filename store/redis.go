package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	sidegate "github.com/sidegate/sidegate"
)

// ErrRedisUnavailable is returned when the redis backend cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Redis is a sidegate.Store backed by a redis instance. Every key is
// namespaced under a fixed prefix so several engines can share one
// database without colliding.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing redis client. An empty prefix defaults to
// "sidegate:".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "sidegate:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get reads a raw value. Absent keys return sidegate.ErrStoreKeyNotFound.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sidegate.ErrStoreKeyNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return data, nil
}

// Set writes a raw value with no expiry. Cache freshness is tracked by
// the engine itself through companion timestamp keys, so values persist
// until overwritten or deleted.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
