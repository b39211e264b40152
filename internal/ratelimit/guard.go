package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokokriya/storefront/internal/common"
)

// Guard applies a per-client budget to storefront traffic. The key function
// usually extracts the client IP; a logged-in surface could key on user id
// instead.
type Guard struct {
	Limiter SlidingWindow
	KeyFn   func(*http.Request) string
	Window  time.Duration
	Max     int
	Logger  zerolog.Logger
}

// Middleware enforces the budget. Redis trouble fails open: dropping real
// shoppers because the limiter store hiccupped is worse than briefly not
// limiting.
func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Max <= 0 || g.KeyFn == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := g.KeyFn(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		dec, err := g.Limiter.Allow(r.Context(), key, g.Window, g.Max)
		if err != nil {
			g.Logger.Warn().Err(err).Msg("ratelimit_degraded")
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(g.Max))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.Unix(), 10))

		if !dec.Allowed {
			retryAfter := int(time.Until(dec.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
