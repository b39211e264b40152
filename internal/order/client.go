package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tokokriya/storefront/internal/pricing"
	"github.com/tokokriya/storefront/internal/resilience"
)

// Order is the submission payload sent to the order service. Totals are
// computed by the caller from the authoritative cart state.
type Order struct {
	CartID   string             `json:"cartId"`
	Items    []pricing.LineItem `json:"items"`
	Address  Address            `json:"address"`
	Shipping pricing.Money      `json:"shipping"`
	Subtotal pricing.Money      `json:"subtotal"`
	Total    pricing.Money      `json:"total"`
	Currency string             `json:"currency"`
}

// Address is the validated delivery destination.
type Address struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Confirmation identifies a successfully placed order.
type Confirmation struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// Client submits orders to the order service.
type Client interface {
	Create(ctx context.Context, o Order) (Confirmation, error)
}

// HTTPClient implements Client against the order service REST API.
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// Create posts the order exactly once. The resilience wrapper is configured
// by the caller; order submission uses a single attempt so a timeout can
// never place two orders.
func (c HTTPClient) Create(ctx context.Context, o Order) (Confirmation, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return Confirmation{}, fmt.Errorf("order: encode request: %w", err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Confirmation{}, fmt.Errorf("order: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("order: submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Confirmation{}, remoteError(resp)
	}
	var payload struct {
		Data Confirmation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Confirmation{}, fmt.Errorf("order: decode confirmation: %w", err)
	}
	if payload.Data.OrderID == "" {
		return Confirmation{}, fmt.Errorf("order: confirmation missing order id")
	}
	return payload.Data, nil
}

// remoteError extracts the service's error message when the body carries one,
// falling back to a generic message the storefront can show directly.
func remoteError(resp *http.Response) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("order: %s", payload.Error.Message)
	}
	return fmt.Errorf("order: submission failed with status %d", resp.StatusCode)
}
