package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/cart"
	"github.com/tokokriya/storefront/internal/catalog"
	"github.com/tokokriya/storefront/internal/pricing"
	"github.com/tokokriya/storefront/internal/storage"
)

func newService(t *testing.T) (*cart.Service, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &cart.Service{KV: storage.RedisKV{Client: client}, TTL: time.Hour}, srv
}

func money(v int64) *pricing.Money {
	m := pricing.Money(v)
	return &m
}

func TestAddItemMergesDuplicates(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	product := catalog.Product{ID: "p1", Title: "Batik Scarf", Price: 1000}

	c, outcome, err := svc.AddItem(ctx, "c1", product, 1)
	require.NoError(t, err)
	require.Equal(t, cart.OutcomeAdded, outcome)
	require.Len(t, c.Items, 1)

	c, outcome, err = svc.AddItem(ctx, "c1", product, 2)
	require.NoError(t, err)
	require.Equal(t, cart.OutcomeQtyUpdated, outcome)
	require.Len(t, c.Items, 1)
	require.Equal(t, 3, c.Items[0].Qty)
	require.Equal(t, pricing.Money(3000), c.Total())
	require.Equal(t, 3, c.Count())
}

func TestTotalUsesDiscountPrice(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	c, _, err := svc.AddItem(ctx, "c1", catalog.Product{ID: "p1", Title: "Woven Basket", Price: 2000, DiscountPrice: money(1500)}, 1)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(1500), c.Total())
}

func TestSetQuantityFloor(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	_, _, err := svc.AddItem(ctx, "c1", catalog.Product{ID: "p1", Price: 1000}, 2)
	require.NoError(t, err)

	// quantities below 1 are rejected without mutating state
	c, outcome := svc.SetQuantity(ctx, "c1", "p1", 0)
	require.Equal(t, cart.OutcomeUnchanged, outcome)
	require.Equal(t, 2, c.Items[0].Qty)

	c, outcome = svc.SetQuantity(ctx, "c1", "p1", 5)
	require.Equal(t, cart.OutcomeQtyUpdated, outcome)
	require.Equal(t, 5, c.Items[0].Qty)

	c, outcome = svc.SetQuantity(ctx, "c1", "missing", 5)
	require.Equal(t, cart.OutcomeUnchanged, outcome)
	require.Len(t, c.Items, 1)
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	_, _, err := svc.AddItem(ctx, "c1", catalog.Product{ID: "p1", Price: 1000}, 1)
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, "c1", catalog.Product{ID: "p2", Price: 2000}, 1)
	require.NoError(t, err)

	c, outcome := svc.RemoveItem(ctx, "c1", "p1")
	require.Equal(t, cart.OutcomeRemoved, outcome)
	require.Len(t, c.Items, 1)
	require.Equal(t, "p2", c.Items[0].ProductID)

	c, outcome = svc.RemoveItem(ctx, "c1", "p1")
	require.Equal(t, cart.OutcomeUnchanged, outcome)
	require.Len(t, c.Items, 1)
}

func TestClearDeletesPersistedKey(t *testing.T) {
	t.Parallel()

	svc, srv := newService(t)
	ctx := context.Background()
	_, _, err := svc.AddItem(ctx, "c1", catalog.Product{ID: "p1", Price: 1000}, 1)
	require.NoError(t, err)
	require.True(t, srv.Exists("cart:c1"))

	c := svc.Clear(ctx, "c1")
	require.Empty(t, c.Items)
	require.False(t, srv.Exists("cart:c1"))

	// clearing an already-empty cart is a no-op, not an error
	c = svc.Clear(ctx, "c1")
	require.Empty(t, c.Items)
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	_, _, err := svc.AddItem(ctx, "c1", catalog.Product{ID: "p1", Title: "Clay Vase", Price: 2500, DiscountPrice: money(2000), Images: []string{"vase.jpg"}}, 2)
	require.NoError(t, err)

	c := svc.Load(ctx, "c1")
	require.Len(t, c.Items, 1)
	require.Equal(t, "Clay Vase", c.Items[0].Title)
	require.Equal(t, "vase.jpg", c.Items[0].Image)
	require.Equal(t, pricing.Money(4000), c.Total())
}

func TestLoadToleratesCorruptPayload(t *testing.T) {
	t.Parallel()

	svc, srv := newService(t)
	ctx := context.Background()
	require.NoError(t, srv.Set("cart:c1", "{not json"))

	c := svc.Load(ctx, "c1")
	require.Equal(t, "c1", c.ID)
	require.Empty(t, c.Items)
}

func TestLoadDropsMalformedEntries(t *testing.T) {
	t.Parallel()

	svc, srv := newService(t)
	ctx := context.Background()
	payload := `[{"productId":"p1","unitPrice":1000,"qty":2},{"productId":"","unitPrice":5,"qty":1},{"productId":"p1","unitPrice":1000,"qty":9},{"productId":"p2","unitPrice":10,"qty":0}]`
	require.NoError(t, srv.Set("cart:c1", payload))

	c := svc.Load(ctx, "c1")
	require.Len(t, c.Items, 1)
	require.Equal(t, "p1", c.Items[0].ProductID)
	require.Equal(t, 2, c.Items[0].Qty)
}

func TestCreateValidatesProvidedID(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	_, err = svc.Create(ctx, "not-a-uuid")
	require.ErrorIs(t, err, cart.ErrInvalidInput)
}
