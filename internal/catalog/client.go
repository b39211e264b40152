package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tokokriya/storefront/internal/pricing"
	"github.com/tokokriya/storefront/internal/resilience"
)

// ErrNotFound indicates the product does not exist in the catalog.
var ErrNotFound = errors.New("catalog: product not found")

// Product is the catalog record consumed when adding to cart. Prices are a
// snapshot; the cart keeps the values observed at add time.
type Product struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Price         pricing.Money  `json:"price"`
	DiscountPrice *pricing.Money `json:"discountPrice,omitempty"`
	Images        []string       `json:"images,omitempty"`
	Stock         int            `json:"stock"`
}

// Image returns the primary display image, if any.
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Client fetches product records from the catalog service.
type Client interface {
	Product(ctx context.Context, id string) (Product, error)
}

// HTTPClient talks to the catalog service REST API through the resilience
// wrapper.
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// Product fetches a single product by id.
func (c HTTPClient) Product(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, errors.New("catalog: product id is required")
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/products/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: fetch product: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return Product{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("catalog: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Product{}, fmt.Errorf("catalog: decode product: %w", err)
	}
	if payload.Data.ID == "" {
		payload.Data.ID = id
	}
	return payload.Data, nil
}
