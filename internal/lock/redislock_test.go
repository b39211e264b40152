package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/tokokriya/storefront/internal/lock"
)

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, RetryEvery: 10 * time.Millisecond}, mr
}

func TestWithLockSerializesContentRefresh(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	var mu sync.Mutex
	var running, maxRunning, refreshes int

	refresh := func(ctx context.Context) error {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		refreshes++
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, locker.WithLock(ctx, "content:hero", time.Second, refresh))
		}()
	}
	wg.Wait()

	require.Equal(t, 3, refreshes, "every worker eventually refreshes")
	require.Equal(t, 1, maxRunning, "only one refresh may run at a time")
}

func TestWithLockAppliesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := lock.Locker{R: client, Prefix: "storefront:lock:"}

	err := locker.WithLock(context.Background(), "content:hero", time.Second, func(ctx context.Context) error {
		require.True(t, mr.Exists("storefront:lock:content:hero"))
		return nil
	})
	require.NoError(t, err)
	require.False(t, mr.Exists("storefront:lock:content:hero"), "lease released after the callback")
}

func TestWithLockGivesUpWhenContextEnds(t *testing.T) {
	locker, _ := newLocker(t)

	hold := make(chan struct{})
	held := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), "content:featured", time.Minute, func(ctx context.Context) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, "content:featured", time.Minute, func(ctx context.Context) error {
		t.Fatal("must not run while the lease is held")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(hold)
}

func TestWithLockRequiresClientAndCallback(t *testing.T) {
	locker, _ := newLocker(t)
	require.Error(t, lock.Locker{}.WithLock(context.Background(), "k", time.Second, func(ctx context.Context) error { return nil }))
	require.Error(t, locker.WithLock(context.Background(), "k", time.Second, nil))
}
