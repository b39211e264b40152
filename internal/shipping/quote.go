package shipping

import (
	"context"
	"regexp"

	"github.com/tokokriya/storefront/internal/pricing"
)

// Quote describes one named shipping method for a destination and subtotal.
type Quote struct {
	Available     bool          `json:"available"`
	Cost          pricing.Money `json:"cost"`
	EstimatedDays string        `json:"estimatedDays"`
	ComingSoon    bool          `json:"comingSoon,omitempty"`
}

// QuoteSet maps method names to their quotes.
type QuoteSet map[string]Quote

// Select returns the quote for the named method when it is selectable.
// Unavailable and coming-soon methods cannot be selected; the second return
// is false and callers leave their current selection unchanged.
func (qs QuoteSet) Select(method string) (Quote, bool) {
	q, ok := qs[method]
	if !ok || !q.Available || q.ComingSoon {
		return Quote{}, false
	}
	return q, true
}

// RateRequest describes a shipping quote lookup.
type RateRequest struct {
	DestinationPostalCode string        `json:"destinationPostalCode"`
	CartSubtotal          pricing.Money `json:"cartSubtotal"`
}

// Client quotes shipping rates from a remote provider.
type Client interface {
	Quotes(ctx context.Context, req RateRequest) (QuoteSet, error)
}

var postalCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidPostalCode reports whether the destination code has the expected
// six-digit shape. Remote lookups are only issued for valid codes.
func ValidPostalCode(code string) bool {
	return postalCodePattern.MatchString(code)
}

// MockClient returns static quotes and is useful for testing and development.
type MockClient struct{}

// Quotes returns canned rates regardless of the request payload.
func (MockClient) Quotes(ctx context.Context, req RateRequest) (QuoteSet, error) {
	_ = ctx
	return QuoteSet{
		"pos":     {Available: true, Cost: 15000, EstimatedDays: "2-3"},
		"courier": {Available: true, Cost: 30000, EstimatedDays: "1"},
		"pickup":  {Available: false, ComingSoon: true, EstimatedDays: "-"},
	}, nil
}
