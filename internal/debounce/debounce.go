// Package debounce coalesces bursts of triggers into a single deferred call.
// The storefront uses it to avoid firing a remote shipping quote on every
// keystroke of the postal code field.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules fn to run once the trigger stream has been quiet for
// the configured delay. Each Trigger resets the timer; only the last call in
// a burst fires.
type Debouncer struct {
	Delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// Trigger schedules fn after the delay, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	delay := d.Delay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		current := d.seq == seq
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending call without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
