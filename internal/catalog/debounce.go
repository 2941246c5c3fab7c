package catalog

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a search is dispatched
const DefaultDebounce = 300 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d; time.AfterFunc satisfies it via RealClock
type AfterFunc func(d time.Duration, f func()) Timer

// RealClock schedules on the runtime timer
func RealClock(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces a burst of calls into the last one, run after the
// delay has elapsed with no newer call.
type Debouncer struct {
	delay     time.Duration
	afterFunc AfterFunc

	mu    sync.Mutex
	timer Timer
	seq   uint64
}

// NewDebouncer creates a debouncer; a nil afterFunc uses the real clock
func NewDebouncer(delay time.Duration, afterFunc AfterFunc) *Debouncer {
	if afterFunc == nil {
		afterFunc = RealClock
	}
	return &Debouncer{delay: delay, afterFunc: afterFunc}
}

// Call schedules f, discarding any call still pending
func (d *Debouncer) Call(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.afterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that fired while being stopped must not run a stale call
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			f()
		}
	})
}

// Cancel drops the pending call, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
