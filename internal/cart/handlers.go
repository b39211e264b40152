package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tokokriya/storefront/internal/catalog"
	"github.com/tokokriya/storefront/internal/common"
	"github.com/tokokriya/storefront/internal/pricing"
	"github.com/tokokriya/storefront/internal/shipping"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Catalog  catalog.Client
	Quoter   *shipping.Quoter
	Resolver shipping.Resolver
	Currency string
}

// Create mints a new cart identifier, or echoes back a valid provided one.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		CartID string `json:"cartId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	c, err := h.Svc.Create(r.Context(), payload.CartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{"cartId": c.ID},
	})
}

// Get returns cart contents with a pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	c := h.Svc.Load(r.Context(), chi.URLParam(r, "id"))
	h.render(w, http.StatusOK, c)
}

// AddItem resolves the product from the catalog and merges it into the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload struct {
		ProductID string `json:"productId"`
		Qty       *int   `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	// an omitted qty means one; an explicit zero or negative qty is a client error
	qty := 1
	if payload.Qty != nil {
		if *payload.Qty <= 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
			return
		}
		qty = *payload.Qty
	}
	product, err := h.Catalog.Product(r.Context(), payload.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "CATALOG_ERROR", "unable to load product", nil)
		return
	}
	c, outcome, err := h.Svc.AddItem(r.Context(), cartID, product, qty)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.renderMutation(w, c, outcome)
}

// UpdateItem replaces the quantity for a line item.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	productID := chi.URLParam(r, "productId")
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Qty <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty must be positive", nil)
		return
	}
	c, outcome := h.Svc.SetQuantity(r.Context(), cartID, productID, payload.Qty)
	h.renderMutation(w, c, outcome)
}

// RemoveItem deletes a line item. Removing an absent item is not an error.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	c, outcome := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productId"))
	h.renderMutation(w, c, outcome)
}

// Clear empties the cart entirely.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	c := h.Svc.Clear(r.Context(), chi.URLParam(r, "id"))
	h.render(w, http.StatusOK, c)
}

// QuoteShipping returns rate options for the cart and destination. Invalid
// destinations and provider outages degrade to the static fallback rate.
func (h *Handler) QuoteShipping(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var payload struct {
		DestinationPostalCode string `json:"destinationPostalCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c := h.Svc.Load(r.Context(), cartID)
	res := h.Quoter.Fetch(r.Context(), strings.TrimSpace(payload.DestinationPostalCode), c.Total())
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"quotes": res.Quotes,
			"stale":  res.Stale,
		},
	})
}

func (h *Handler) renderMutation(w http.ResponseWriter, c Cart, outcome Outcome) {
	h.renderWith(w, http.StatusOK, c, map[string]any{"outcome": string(outcome)})
}

func (h *Handler) render(w http.ResponseWriter, status int, c Cart) {
	h.renderWith(w, status, c, nil)
}

func (h *Handler) renderWith(w http.ResponseWriter, status int, c Cart, extra map[string]any) {
	items := make([]map[string]any, 0, len(c.Items))
	for _, it := range c.Items {
		unit := pricing.EffectiveUnitPrice(it)
		items = append(items, map[string]any{
			"productId":     it.ProductID,
			"title":         it.Title,
			"image":         it.Image,
			"qty":           it.Qty,
			"unitPrice":     it.UnitPrice,
			"discountPrice": it.DiscountPrice,
			"lineTotal":     unit * pricing.Money(it.Qty),
			"display": map[string]any{
				"unitPrice":     pricing.Format(it.UnitPrice),
				"discountPrice": pricing.FormatOptional(it.DiscountPrice),
			},
		})
	}
	var estimate pricing.Money
	if len(c.Items) > 0 {
		estimate = h.Resolver.EstimateDefault(c.Total())
	}
	summary := pricing.Compute(c.Items, estimate)
	data := map[string]any{
		"id":    c.ID,
		"items": items,
		"count": c.Count(),
		"pricing": map[string]any{
			"subtotal": summary.Subtotal,
			"shipping": summary.Shipping,
			"total":    summary.Total,
		},
		"display": map[string]any{
			"subtotal": pricing.Format(summary.Subtotal),
			"shipping": pricing.Format(summary.Shipping),
			"total":    pricing.Format(summary.Total),
		},
		"currency": h.Currency,
	}
	for k, v := range extra {
		data[k] = v
	}
	common.JSON(w, status, map[string]any{"data": data})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
