package security

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/tokokriya/storefront/internal/common"
)

// BodyLimit caps request payload size. Cart and checkout bodies are a few
// hundred bytes; anything near the cap is not a storefront client.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized payloads with 413 before the handler decodes
// anything. The body is buffered so downstream json decoding sees a plain
// reader of known length.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			tooLarge(w)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, b.Max+1))
		if err != nil && !errors.Is(err, io.EOF) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
			return
		}
		if int64(len(body)) > b.Max {
			tooLarge(w)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body exceeds the limit", nil)
}
