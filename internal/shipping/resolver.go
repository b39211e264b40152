package shipping

import "github.com/tokokriya/storefront/internal/pricing"

// Resolver determines the shipping cost contribution to a checkout total when
// no richer quote is available.
type Resolver struct {
	FreeThreshold pricing.Money
	FlatRate      pricing.Money
}

// EstimateDefault returns the static fallback cost: free at or above the
// threshold, a flat rate below it.
func (r Resolver) EstimateDefault(subtotal pricing.Money) pricing.Money {
	if subtotal >= r.FreeThreshold {
		return 0
	}
	return r.FlatRate
}
