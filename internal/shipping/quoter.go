package shipping

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tokokriya/storefront/internal/obs"
	"github.com/tokokriya/storefront/internal/pricing"
)

// Quoter serializes remote rate lookups per destination. Every fetch is
// tagged with a monotonically increasing sequence number; a response whose
// sequence is no longer the latest is discarded so a slow earlier lookup can
// never overwrite the quotes of a newer one.
type Quoter struct {
	Client   Client
	Resolver Resolver
	Logger   zerolog.Logger

	mu     sync.Mutex
	seq    uint64
	latest QuoteSet
}

// Result carries the outcome of a quote lookup. Stale reports that the
// response lost the race against a newer request and was dropped.
type Result struct {
	Quotes QuoteSet
	Stale  bool
}

// Fetch requests quotes for the destination. Invalid postal codes and remote
// failures degrade to the static fallback rate rather than surfacing an
// error; the caller always receives a usable quote set.
func (q *Quoter) Fetch(ctx context.Context, postalCode string, subtotal pricing.Money) Result {
	fallback := QuoteSet{
		"standard": {Available: true, Cost: q.Resolver.EstimateDefault(subtotal), EstimatedDays: "3-5"},
	}
	if q == nil || q.Client == nil || !ValidPostalCode(postalCode) {
		recordQuote("fallback")
		return Result{Quotes: fallback}
	}

	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.mu.Unlock()

	quotes, err := q.Client.Quotes(ctx, RateRequest{DestinationPostalCode: postalCode, CartSubtotal: subtotal})
	result := "remote"
	if err != nil {
		q.Logger.Warn().Err(err).Str("postal_code", postalCode).Msg("shipping_quote_failed")
		quotes = fallback
		result = "failed"
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if seq != q.seq {
		// a newer lookup has started; this response is stale
		recordQuote("stale")
		return Result{Quotes: q.latest, Stale: true}
	}
	q.latest = quotes
	recordQuote(result)
	return Result{Quotes: quotes}
}

func recordQuote(result string) {
	if obs.ShippingQuotesTotal != nil {
		obs.ShippingQuotesTotal.WithLabelValues(result).Inc()
	}
}

// Latest returns the most recently accepted quote set, if any.
func (q *Quoter) Latest() QuoteSet {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latest
}
