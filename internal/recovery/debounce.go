package recovery

import (
	"sync"
	"time"
)

// debouncer coalesces a burst of edit events into one trailing callback:
// idle until triggered, then pending until the window elapses without a new
// trigger. Each trigger during the pending state pushes the deadline out.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
	// gen invalidates callbacks from superseded timers. A trigger that
	// lands after a timer elapsed but before its callback ran must not
	// produce a second fire for the same burst.
	gen uint64
	// stopped permanently disarms the debouncer; pending work is dropped.
	stopped bool
}

func newDebouncer(window time.Duration, fn func()) *debouncer {
	return &debouncer{window: window, fn: fn}
}

// Trigger records an edit event, arming or rescheduling the trailing timer.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// fire runs the callback only when gen is still current; a stale timer
// whose generation was superseded drops out silently.
func (d *debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()
	fn()
}

// Stop disarms the debouncer. Any save still pending is dropped: the ground
// truth for autosave is the live DOM, not the snapshot.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
