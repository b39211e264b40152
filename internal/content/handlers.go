package content

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/tokokriya/storefront/internal/common"
)

var sectionPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,63}$`)

// Handler serves storefront content sections.
type Handler struct {
	Svc *Service
}

// Get returns a section document, served from cache when possible.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "content service not configured", nil)
		return
	}
	section := chi.URLParam(r, "section")
	if !sectionPattern.MatchString(section) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid section name", nil)
		return
	}
	doc, cached, err := h.Svc.Section(r.Context(), section)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "section not found", nil)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "CONTENT_ERROR", "unable to load content", nil)
		return
	}
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

// Invalidate drops one cached section so the next read refetches it.
func (h *Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Cache == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "content service not configured", nil)
		return
	}
	section := chi.URLParam(r, "section")
	if err := h.Svc.Cache.Invalidate(r.Context(), section); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to invalidate section", nil)
		return
	}
	h.Svc.ScheduleRefresh(section)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"invalidated": section}})
}

// InvalidateAll drops every cached section.
func (h *Handler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Svc.Cache == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "content service not configured", nil)
		return
	}
	if err := h.Svc.Cache.InvalidateAll(r.Context()); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to invalidate cache", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"invalidated": "all"}})
}
