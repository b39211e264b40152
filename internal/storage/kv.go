package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// KV is the durable key-value contract used for client-state mirrors. All
// implementations are best-effort: callers treat their in-memory state as
// authoritative and absorb persistence failures.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisKV implements KV on a Redis client.
type RedisKV struct {
	Client *redis.Client
}

// Get returns the raw value stored at key, or ErrNotFound.
func (s RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	if s.Client == nil {
		return nil, errors.New("storage: redis client not configured")
	}
	data, err := s.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set stores value at key with the provided TTL. A non-positive TTL keeps the
// key without expiry.
func (s RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.Client == nil {
		return errors.New("storage: redis client not configured")
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.Client.Set(ctx, key, value, ttl).Err()
}

// Del removes the key entirely, leaving no residual serialized state.
func (s RedisKV) Del(ctx context.Context, key string) error {
	if s.Client == nil {
		return errors.New("storage: redis client not configured")
	}
	return s.Client.Del(ctx, key).Err()
}
