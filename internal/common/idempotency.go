package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Idempotency fences duplicate writes on cart mutations and checkout
// submission. The first request bearing a given Idempotency-Key claims it;
// until the claim expires, later requests with the same key are answered
// with 409 instead of re-running the handler.
type Idempotency struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func (i Idempotency) key(raw string) string {
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem:"
	}
	// keys are client-chosen; hash them so they are bounded and opaque
	sum := sha256.Sum256([]byte(raw))
	return prefix + hex.EncodeToString(sum[:])
}

func (i Idempotency) ttl() time.Duration {
	if i.TTL > 0 {
		return i.TTL
	}
	return defaultIdempotencyTTL
}

// Middleware enforces the idempotency claim for write endpoints. Requests
// without a key pass through untouched.
func (i Idempotency) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if raw == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		claimed, err := i.R.SetNX(r.Context(), i.key(raw), "claimed", i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
