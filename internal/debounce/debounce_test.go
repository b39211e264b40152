package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := &Debouncer{Delay: 20 * time.Millisecond}
	for i := 0; i < 5; i++ {
		d.Trigger(func() { fired.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	// no further calls arrive after the burst settles
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load())
}

func TestDebouncerCancel(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := &Debouncer{Delay: 20 * time.Millisecond}
	d.Trigger(func() { fired.Add(1) })
	d.Cancel()

	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

func TestDebouncerLastTriggerWins(t *testing.T) {
	t.Parallel()

	var got atomic.Int32
	d := &Debouncer{Delay: 15 * time.Millisecond}
	d.Trigger(func() { got.Store(1) })
	d.Trigger(func() { got.Store(2) })

	require.Eventually(t, func() bool { return got.Load() == 2 }, time.Second, 5*time.Millisecond)
}
