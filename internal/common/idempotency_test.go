package common_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/common"
)

func newIdempotency(t *testing.T) common.Idempotency {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idempotency{R: client, TTL: time.Minute}
}

func TestIdempotencyRejectsReplay(t *testing.T) {
	t.Parallel()

	idem := newIdempotency(t)
	var handled int
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled++
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req.Header.Set("Idempotency-Key", "submit-c1")
	h.ServeHTTP(first, req)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/checkout", nil)
	req2.Header.Set("Idempotency-Key", "submit-c1")
	h.ServeHTTP(replay, req2)
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Contains(t, replay.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, handled)
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	t.Parallel()

	idem := newIdempotency(t)
	var handled int
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/carts/c1/items", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 2, handled)
}

func TestClientIPPrefersForwardedChain(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4411"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", common.ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	require.Equal(t, "198.51.100.4", common.ClientIP(req))

	req.Header.Del("X-Real-IP")
	require.Equal(t, "10.0.0.9", common.ClientIP(req))
}

func TestClientIPIgnoresGarbageHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4411"
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	require.Equal(t, "10.0.0.9", common.ClientIP(req))
}
