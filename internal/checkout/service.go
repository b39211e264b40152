package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tokokriya/storefront/internal/cart"
	"github.com/tokokriya/storefront/internal/common"
	"github.com/tokokriya/storefront/internal/events"
	"github.com/tokokriya/storefront/internal/obs"
	"github.com/tokokriya/storefront/internal/order"
	"github.com/tokokriya/storefront/internal/pricing"
	"github.com/tokokriya/storefront/internal/shipping"
)

// State is the checkout lifecycle for one cart.
type State string

const (
	// StateIdle accepts a new submission.
	StateIdle State = "idle"
	// StateSubmitting has an order request in flight; further submissions
	// are rejected until it settles.
	StateSubmitting State = "submitting"
	// StateConfirmed holds a placed order; the cart has been cleared.
	StateConfirmed State = "confirmed"
)

// ErrSubmissionInFlight rejects a second submission while one is pending.
var ErrSubmissionInFlight = errors.New("checkout: submission already in flight")

// ErrEmptyCart rejects checkout entry for carts with no items.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// defaultSessionTTL bounds how long an untouched session stays in memory.
const defaultSessionTTL = 30 * time.Minute

// Session is the per-cart checkout progress.
type Session struct {
	State        State
	Confirmation order.Confirmation
	touched      time.Time
}

// Orchestrator drives the checkout flow: entry guards, address validation,
// total resolution and single-attempt order submission.
type Orchestrator struct {
	Cart     *cart.Service
	Orders   order.Client
	Quoter   *shipping.Quoter
	Resolver shipping.Resolver
	Validate *validator.Validate
	Events   *events.Bus
	Currency string
	Logger   zerolog.Logger

	// SessionTTL is how long an idle or confirmed session survives without
	// being touched before it is evicted. In-flight submissions never expire.
	SessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// Request is a full checkout submission.
type Request struct {
	CartID                string        `json:"cartId"`
	Address               order.Address `json:"address"`
	ShippingMethod        string        `json:"shippingMethod"`
	DestinationPostalCode string        `json:"destinationPostalCode"`
}

// Summary is what the client renders on the confirmation step.
type Summary struct {
	State        State               `json:"state"`
	Items        []pricing.LineItem  `json:"items,omitempty"`
	Pricing      pricing.Summary     `json:"pricing"`
	Confirmation *order.Confirmation `json:"confirmation,omitempty"`
}

func (o *Orchestrator) sessionTTL() time.Duration {
	if o.SessionTTL > 0 {
		return o.SessionTTL
	}
	return defaultSessionTTL
}

func (o *Orchestrator) session(cartID string) *Session {
	now := time.Now()
	o.evictLocked(now)
	if o.sessions == nil {
		o.sessions = make(map[string]*Session)
	}
	s, ok := o.sessions[cartID]
	if !ok {
		s = &Session{State: StateIdle}
		o.sessions[cartID] = s
	}
	s.touched = now
	return s
}

// evictLocked drops sessions untouched past the TTL so the map cannot grow
// without bound under long uptimes.
func (o *Orchestrator) evictLocked(now time.Time) {
	ttl := o.sessionTTL()
	for id, s := range o.sessions {
		if s.State == StateSubmitting {
			continue
		}
		if now.Sub(s.touched) > ttl {
			delete(o.sessions, id)
		}
	}
}

// Begin checks the entry guard: checkout is only reachable with a non-empty
// cart. It returns the current session state and a priced preview.
func (o *Orchestrator) Begin(ctx context.Context, cartID string) (Summary, error) {
	if o == nil || o.Cart == nil {
		return Summary{}, errors.New("checkout: orchestrator not configured")
	}
	c := o.Cart.Load(ctx, cartID)
	if len(c.Items) == 0 {
		return Summary{}, ErrEmptyCart
	}
	o.mu.Lock()
	s := o.session(cartID)
	state := s.State
	o.mu.Unlock()
	estimate := o.Resolver.EstimateDefault(c.Total())
	return Summary{
		State:   state,
		Items:   c.Items,
		Pricing: pricing.Compute(c.Items, estimate),
	}, nil
}

// Submit validates the address, resolves the shipping cost and places the
// order with exactly one attempt. On success the cart is cleared and the
// session moves to Confirmed. On failure the cart is untouched and the
// session returns to Idle so the shopper can retry.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (Summary, error) {
	if o == nil || o.Cart == nil || o.Orders == nil {
		return Summary{}, errors.New("checkout: orchestrator not configured")
	}
	if fields := ValidateAddress(o.Validate, req.Address); len(fields) > 0 {
		return Summary{}, common.NewAppError("VALIDATION", "address is invalid", http.StatusUnprocessableEntity, nil).WithDetails(fields)
	}

	c := o.Cart.Load(ctx, req.CartID)
	if len(c.Items) == 0 {
		return Summary{}, ErrEmptyCart
	}

	o.mu.Lock()
	s := o.session(req.CartID)
	switch s.State {
	case StateSubmitting:
		o.mu.Unlock()
		return Summary{}, ErrSubmissionInFlight
	case StateConfirmed:
		conf := s.Confirmation
		o.mu.Unlock()
		return Summary{State: StateConfirmed, Confirmation: &conf}, nil
	}
	s.State = StateSubmitting
	o.mu.Unlock()

	shippingCost := o.resolveShipping(ctx, req, c.Total())
	summary := pricing.Compute(c.Items, shippingCost)

	conf, err := o.Orders.Create(ctx, order.Order{
		CartID:   c.ID,
		Items:    c.Items,
		Address:  req.Address,
		Shipping: summary.Shipping,
		Subtotal: summary.Subtotal,
		Total:    summary.Total,
		Currency: o.Currency,
	})
	if err != nil {
		o.mu.Lock()
		s.State = StateIdle
		o.mu.Unlock()
		recordSubmission("failure")
		o.Logger.Warn().Err(err).Str("cart_id", c.ID).Msg("checkout_submit_failed")
		o.emit(ctx, events.TopicCheckoutFailed, c.ID, map[string]any{"reason": err.Error()})
		return Summary{State: StateIdle, Items: c.Items, Pricing: summary}, fmt.Errorf("checkout: %w", err)
	}

	o.mu.Lock()
	s.State = StateConfirmed
	s.Confirmation = conf
	o.mu.Unlock()

	o.Cart.Clear(ctx, c.ID)
	recordSubmission("success")
	o.Logger.Info().Str("cart_id", c.ID).Str("order_id", conf.OrderID).Msg("checkout_confirmed")
	o.emit(ctx, events.TopicCheckoutConfirmed, c.ID, map[string]any{
		"orderId":     conf.OrderID,
		"orderNumber": conf.OrderNumber,
		"total":       summary.Total,
	})
	return Summary{State: StateConfirmed, Pricing: summary, Confirmation: &conf}, nil
}

// Status returns the session state, with the confirmation when placed.
func (o *Orchestrator) Status(cartID string) Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.session(cartID)
	sum := Summary{State: s.State}
	if s.State == StateConfirmed {
		conf := s.Confirmation
		sum.Confirmation = &conf
	}
	return sum
}

// Reset returns the session to Idle. Used after the shopper leaves the
// confirmation screen to start a fresh cart.
func (o *Orchestrator) Reset(cartID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.sessions, cartID)
}

// resolveShipping prefers the selected method from a live quote and falls
// back to the static estimate when the method cannot be resolved.
func (o *Orchestrator) resolveShipping(ctx context.Context, req Request, subtotal pricing.Money) pricing.Money {
	if o.Quoter != nil && req.ShippingMethod != "" {
		res := o.Quoter.Fetch(ctx, req.DestinationPostalCode, subtotal)
		if q, ok := res.Quotes.Select(req.ShippingMethod); ok {
			return q.Cost
		}
	}
	return o.Resolver.EstimateDefault(subtotal)
}

func recordSubmission(result string) {
	if obs.CheckoutSubmissionsTotal != nil {
		obs.CheckoutSubmissionsTotal.WithLabelValues(result).Inc()
	}
}

func (o *Orchestrator) emit(ctx context.Context, topic, cartID string, payload any) {
	if o.Events == nil {
		return
	}
	if _, err := o.Events.Emit(ctx, topic, cartID, payload); err != nil {
		o.Logger.Warn().Err(err).Str("topic", topic).Msg("checkout_event_failed")
	}
}
