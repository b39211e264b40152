package content_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/content"
)

type staticLoader struct {
	mu    sync.Mutex
	docs  map[string]string
	calls int
}

func (l *staticLoader) Load(ctx context.Context, section string) (json.RawMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	doc, ok := l.docs[section]
	if !ok {
		return nil, content.ErrNotFound
	}
	return json.RawMessage(doc), nil
}

func (l *staticLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *staticLoader) setDoc(section, doc string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[section] = doc
}

func newService(t *testing.T) (*content.Service, *staticLoader, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	loader := &staticLoader{docs: map[string]string{
		"hero":    `{"title":"Handcrafted with love"}`,
		"artists": `{"featured":["ayu","budi"]}`,
	}}
	svc := &content.Service{
		Cache:  &content.Cache{Client: client, TTL: time.Minute},
		Loader: loader,
	}
	return svc, loader, srv
}

func TestSectionCachesOnFirstLoad(t *testing.T) {
	t.Parallel()

	svc, loader, _ := newService(t)
	ctx := context.Background()

	doc, cached, err := svc.Section(ctx, "hero")
	require.NoError(t, err)
	require.False(t, cached)
	require.JSONEq(t, `{"title":"Handcrafted with love"}`, string(doc))

	doc, cached, err = svc.Section(ctx, "hero")
	require.NoError(t, err)
	require.True(t, cached)
	require.JSONEq(t, `{"title":"Handcrafted with love"}`, string(doc))
	require.Equal(t, 1, loader.callCount())
}

func TestSectionNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	_, _, err := svc.Section(context.Background(), "ghost")
	require.ErrorIs(t, err, content.ErrNotFound)
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	svc, loader, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Section(ctx, "hero")
	require.NoError(t, err)
	require.NoError(t, svc.Cache.Invalidate(ctx, "hero"))

	_, cached, err := svc.Section(ctx, "hero")
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 2, loader.callCount())
}

func TestInvalidateAll(t *testing.T) {
	t.Parallel()

	svc, loader, srv := newService(t)
	ctx := context.Background()

	_, _, err := svc.Section(ctx, "hero")
	require.NoError(t, err)
	_, _, err = svc.Section(ctx, "artists")
	require.NoError(t, err)
	require.True(t, srv.Exists("content:hero"))

	require.NoError(t, svc.Cache.InvalidateAll(ctx))
	require.False(t, srv.Exists("content:hero"))
	require.False(t, srv.Exists("content:artists"))

	_, cached, err := svc.Section(ctx, "hero")
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, 3, loader.callCount())
}

func TestRefreshReplacesCachedCopy(t *testing.T) {
	t.Parallel()

	svc, loader, _ := newService(t)
	ctx := context.Background()

	_, _, err := svc.Section(ctx, "hero")
	require.NoError(t, err)

	loader.setDoc("hero", `{"title":"New season"}`)
	require.NoError(t, svc.Refresh(ctx, "hero"))

	doc, cached, err := svc.Section(ctx, "hero")
	require.NoError(t, err)
	require.True(t, cached)
	require.JSONEq(t, `{"title":"New season"}`, string(doc))
}

func TestScheduleRefreshCoalesces(t *testing.T) {
	t.Parallel()

	svc, loader, _ := newService(t)
	svc.RefreshDelay = 20 * time.Millisecond

	for i := 0; i < 4; i++ {
		svc.ScheduleRefresh("hero")
	}

	require.Eventually(t, func() bool { return loader.callCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, loader.callCount())
}
