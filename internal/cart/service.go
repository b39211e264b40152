package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tokokriya/storefront/internal/catalog"
	"github.com/tokokriya/storefront/internal/events"
	"github.com/tokokriya/storefront/internal/obs"
	"github.com/tokokriya/storefront/internal/pricing"
	"github.com/tokokriya/storefront/internal/storage"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Outcome distinguishes the observable result of a cart mutation so callers
// can notify accordingly.
type Outcome string

const (
	// OutcomeAdded means a new line item was created.
	OutcomeAdded Outcome = "added"
	// OutcomeQtyUpdated means an existing line item absorbed the quantity.
	OutcomeQtyUpdated Outcome = "qty_updated"
	// OutcomeRemoved means a line item was deleted.
	OutcomeRemoved Outcome = "removed"
	// OutcomeUnchanged means the mutation was rejected or matched nothing.
	OutcomeUnchanged Outcome = "unchanged"
)

// Service owns cart state. The loaded item list is authoritative for the
// duration of an operation; the key-value mirror is best-effort and its
// failures never surface to callers.
type Service struct {
	KV     storage.KV
	Prefix string
	TTL    time.Duration
	Events *events.Bus
	Logger zerolog.Logger
}

func (s *Service) key(cartID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "cart:"
	}
	return prefix + cartID
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Create mints a new empty cart identifier. Nothing is persisted until the
// first mutation.
func (s *Service) Create(ctx context.Context, id string) (Cart, error) {
	if s == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return Cart{}, fmt.Errorf("parse cart id: %w", ErrInvalidInput)
	}
	return s.Load(ctx, id), nil
}

// Load reads the persisted item list for the cart. Absence and corrupted
// payloads both degrade to an empty cart; Load never fails.
func (s *Service) Load(ctx context.Context, cartID string) Cart {
	cart := Cart{ID: cartID}
	if s == nil || s.KV == nil {
		return cart
	}
	data, err := s.KV.Get(ctx, s.key(cartID))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.Logger.Warn().Err(err).Str("cart_id", cartID).Msg("cart_load_failed")
		}
		return cart
	}
	var items []pricing.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		s.Logger.Warn().Err(err).Str("cart_id", cartID).Msg("cart_payload_corrupt")
		return cart
	}
	cart.Items = sanitize(items)
	return cart
}

// AddItem merges the product into the cart with the given quantity and
// persists the result. Adding an already-present product accumulates quantity
// instead of creating a duplicate line.
func (s *Service) AddItem(ctx context.Context, cartID string, product catalog.Product, qty int) (Cart, Outcome, error) {
	if s == nil {
		return Cart{}, OutcomeUnchanged, errors.New("cart service not configured")
	}
	if qty < 1 {
		return Cart{}, OutcomeUnchanged, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(product.ID) == "" {
		return Cart{}, OutcomeUnchanged, fmt.Errorf("product id is required: %w", ErrInvalidInput)
	}
	cart := s.Load(ctx, cartID)
	created := cart.add(pricing.LineItem{
		ProductID:     product.ID,
		Title:         product.Title,
		UnitPrice:     product.Price,
		DiscountPrice: product.DiscountPrice,
		Image:         product.Image(),
		Qty:           qty,
	})
	s.persist(ctx, cart)
	outcome := OutcomeQtyUpdated
	topic := events.TopicCartItemQtyUpdated
	if created {
		outcome = OutcomeAdded
		topic = events.TopicCartItemAdded
	}
	record("add", outcome)
	s.emit(ctx, topic, cart.ID, map[string]any{"productId": product.ID, "qty": qty})
	return cart, outcome, nil
}

// SetQuantity replaces the quantity for a line item. Quantities below 1 are
// rejected without mutating state; unknown products are a no-op. Neither case
// is an error.
func (s *Service) SetQuantity(ctx context.Context, cartID, productID string, qty int) (Cart, Outcome) {
	cart := s.Load(ctx, cartID)
	if !cart.setQuantity(productID, qty) {
		record("set_qty", OutcomeUnchanged)
		return cart, OutcomeUnchanged
	}
	s.persist(ctx, cart)
	record("set_qty", OutcomeQtyUpdated)
	s.emit(ctx, events.TopicCartItemQtyUpdated, cart.ID, map[string]any{"productId": productID, "qty": qty})
	return cart, OutcomeQtyUpdated
}

// RemoveItem deletes a line item when present and persists the result.
func (s *Service) RemoveItem(ctx context.Context, cartID, productID string) (Cart, Outcome) {
	cart := s.Load(ctx, cartID)
	if !cart.remove(productID) {
		record("remove", OutcomeUnchanged)
		return cart, OutcomeUnchanged
	}
	s.persist(ctx, cart)
	record("remove", OutcomeRemoved)
	s.emit(ctx, events.TopicCartItemRemoved, cart.ID, map[string]any{"productId": productID})
	return cart, OutcomeRemoved
}

// Clear empties the cart and deletes the persisted key entirely, leaving no
// residual serialized state. Clearing an already-empty cart is not an error.
func (s *Service) Clear(ctx context.Context, cartID string) Cart {
	cart := Cart{ID: cartID}
	if s == nil || s.KV == nil {
		return cart
	}
	if err := s.KV.Del(ctx, s.key(cartID)); err != nil {
		s.Logger.Warn().Err(err).Str("cart_id", cartID).Msg("cart_clear_failed")
	}
	record("clear", OutcomeRemoved)
	s.emit(ctx, events.TopicCartCleared, cartID, nil)
	return cart
}

func (s *Service) persist(ctx context.Context, cart Cart) {
	if s.KV == nil {
		return
	}
	data, err := json.Marshal(cart.Items)
	if err != nil {
		s.Logger.Error().Err(err).Str("cart_id", cart.ID).Msg("cart_encode_failed")
		return
	}
	if err := s.KV.Set(ctx, s.key(cart.ID), data, s.ttl()); err != nil {
		// best-effort mirror: the in-memory state stays authoritative
		s.Logger.Warn().Err(err).Str("cart_id", cart.ID).Msg("cart_persist_failed")
	}
}

func (s *Service) emit(ctx context.Context, topic, cartID string, payload any) {
	if s.Events == nil {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, cartID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("topic", topic).Msg("cart_event_failed")
	}
}

func record(op string, outcome Outcome) {
	if obs.CartMutationsTotal != nil {
		obs.CartMutationsTotal.WithLabelValues(op, string(outcome)).Inc()
	}
}

// sanitize drops malformed persisted entries rather than failing the load.
func sanitize(items []pricing.LineItem) []pricing.LineItem {
	out := items[:0]
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" || it.Qty < 1 {
			continue
		}
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it)
	}
	return out
}
