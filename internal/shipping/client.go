package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tokokriya/storefront/internal/resilience"
)

// HTTPClient quotes rates from the shipping rate service through the
// resilience wrapper.
type HTTPClient struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// Quotes posts the destination and subtotal and decodes the method map.
func (c HTTPClient) Quotes(ctx context.Context, r RateRequest) (QuoteSet, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("shipping: encode request: %w", err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/rates"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shipping: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("shipping: fetch rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shipping: unexpected status %s", resp.Status)
	}
	var payload struct {
		Data QuoteSet `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("shipping: decode rates: %w", err)
	}
	return payload.Data, nil
}
