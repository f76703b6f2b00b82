// Package debounce runs an action once input has been idle for a fixed
// interval. Every Trigger restarts the countdown.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays fn until Trigger has not been called for interval.
//
// fn runs on its own goroutine. Callers that own single-threaded state
// should make fn hand off to their event loop (for example by sending on a
// channel) rather than touching that state directly.
type Debouncer struct {
	interval time.Duration
	fn       func()

	run sync.Mutex // held while fn executes

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // bumped on every Trigger/Stop; a timer only fires if its gen is current
	pending bool
	stopped bool
}

// New creates a Debouncer. A non-positive interval runs fn on the next
// scheduler tick after each Trigger.
func New(interval time.Duration, fn func()) *Debouncer {
	if interval < 0 {
		interval = 0
	}
	return &Debouncer{interval: interval, fn: fn}
}

// Interval returns the idle interval.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Trigger cancels any pending run and schedules a new one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if d.stopped || gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()

	d.fn()
}

// Flush runs a pending action immediately on the calling goroutine.
// Returns false if nothing was pending.
func (d *Debouncer) Flush() bool {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return false
	}
	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.fn()
	return true
}

// Cancel drops a pending run without stopping the Debouncer.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any pending run and waits for a running fn to return.
// Later Triggers are ignored. Stop must not be called from inside fn.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	// wait out an in-flight fn
	d.run.Lock()
	d.run.Unlock()
}
