package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokokriya/storefront/internal/common"
)

// Handler wires the checkout orchestrator to HTTP. All routes require an
// authenticated session; the auth middleware enforces that upstream.
type Handler struct {
	Svc *Orchestrator
}

// Begin opens checkout for a cart and returns the priced preview.
func (h *Handler) Begin(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout not configured", nil)
		return
	}
	summary, err := h.Svc.Begin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Submit validates and places the order.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout not configured", nil)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	summary, err := h.Svc.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": summary})
}

// Status reports the session state for a cart.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Status(chi.URLParam(r, "id"))})
}

// Reset abandons the session for a cart so the shopper can start over.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout not configured", nil)
		return
	}
	h.Svc.Reset(chi.URLParam(r, "id"))
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"state": string(StateIdle)}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusConflict, "EMPTY_CART", "cart has no items", nil)
	case errors.Is(err, ErrSubmissionInFlight):
		common.JSONError(w, http.StatusConflict, "IN_FLIGHT", "an order submission is already in progress", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "ORDER_ERROR", err.Error(), nil)
	}
}
