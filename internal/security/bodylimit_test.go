package security_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/security"
)

func TestBodyLimitPassesSmallPayload(t *testing.T) {
	t.Parallel()

	mw := security.BodyLimit{Max: 64}
	var seen string
	h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"productId":"p1","qty":2}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/carts/c1/items", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, body, seen)
}

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	mw := security.BodyLimit{Max: 8}
	h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(strings.Repeat("x", 32))))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	t.Parallel()

	mw := security.BodyLimit{Max: 8}
	h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("tiny"))
	req.ContentLength = 4096
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
