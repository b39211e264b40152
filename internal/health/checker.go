package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probes is the production Checker backed by the Redis client and the
// upstream service base URLs.
type Probes struct {
	Redis     *redis.Client
	Upstreams map[string]string
	HTTP      *http.Client
}

// PingRedis issues a PING with the given timeout.
func (p Probes) PingRedis(ctx context.Context, timeout time.Duration) error {
	if p.Redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Redis.Ping(ctx).Err()
}

// PingUpstreams issues a HEAD request to every configured upstream and
// reports per-service reachability.
func (p Probes) PingUpstreams(ctx context.Context, timeout time.Duration) map[string]error {
	out := make(map[string]error, len(p.Upstreams))
	client := p.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	for name, base := range p.Upstreams {
		func() {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			req, err := http.NewRequestWithContext(callCtx, http.MethodHead, base, nil)
			if err != nil {
				out[name] = err
				return
			}
			resp, err := client.Do(req)
			if err != nil {
				out[name] = err
				return
			}
			_ = resp.Body.Close()
			out[name] = nil
		}()
	}
	return out
}
