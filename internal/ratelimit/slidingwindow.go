package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlidingWindow counts requests in a rolling window backed by a redis sorted
// set per key. Members are scored by arrival time so old entries age out as
// the window slides, which avoids the burst-at-boundary problem of fixed
// windows.
type SlidingWindow struct {
	R      *redis.Client
	Prefix string
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Allow records the request and reports whether it fits inside the budget.
// The request is counted even when denied; a client hammering past its limit
// keeps pushing its own reset time out.
func (sw SlidingWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	now := time.Now()
	cutoff := now.Add(-window)
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())

	pipe := sw.R.TxPipeline()
	pipe.ZRemRangeByScore(ctx, sw.keyFor(key), "0", fmt.Sprintf("%d", cutoff.UnixNano()))
	pipe.ZAdd(ctx, sw.keyFor(key), redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, sw.keyFor(key))
	pipe.Expire(ctx, sw.keyFor(key), window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit allow %q: %w", key, err)
	}

	used := int(count.Val())
	remaining := max - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   used <= max,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}, nil
}

func (sw SlidingWindow) keyFor(key string) string {
	prefix := sw.Prefix
	if prefix == "" {
		prefix = "rl:"
	}
	return prefix + key
}
