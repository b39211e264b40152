package lock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL   = 30 * time.Second
	defaultRetry = 50 * time.Millisecond
)

// Locker serializes work across worker instances with a redis lease. Each
// holder owns a random token so an expired lease can never be released by a
// later holder.
type Locker struct {
	R          *redis.Client
	Prefix     string
	RetryEvery time.Duration
}

// WithLock runs fn while holding the lease for key, polling until the lease
// is free or ctx ends. The lease is released when fn returns, error or not.
// If fn outlives the ttl the lease simply lapses and another instance may
// start; fn must tolerate that.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	retry := l.RetryEvery
	if retry <= 0 {
		retry = defaultRetry
	}

	leaseKey := l.keyFor(key)
	token := uuid.NewString()
	for {
		acquired, err := l.R.SetNX(ctx, leaseKey, token, ttl).Result()
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	// release against a fresh context so a cancelled fn still frees the lease
	defer l.release(context.Background(), leaseKey, token)
	return fn(ctx)
}

func (l Locker) keyFor(key string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "lock:"
	}
	return prefix + key
}

// release deletes the lease only if this holder still owns it. The
// compare-and-delete runs as a Lua script; stores without scripting get a
// plain delete, accepting the small chance of releasing a successor's lease.
func (l Locker) release(ctx context.Context, leaseKey, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := l.R.Eval(ctx, script, []string{leaseKey}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, leaseKey).Err()
		}
	}
}
