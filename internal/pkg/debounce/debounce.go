// internal/pkg/debounce/debounce.go
package debounce

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// Debouncer coalesces bursts of triggers into one call of fn per window.
// The first trigger opens the window; fn runs once when it closes.
type Debouncer struct {
	clock  clock.Clock
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
}

// New creates a debouncer calling fn at most once per window
func New(clk clock.Clock, window time.Duration, fn func()) *Debouncer {
	return &Debouncer{
		clock:  clk,
		window: window,
		fn:     fn,
	}
}

// Trigger requests a call of fn. Triggers inside an open window are absorbed.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.timer != nil {
		return
	}
	d.timer = d.clock.AfterFunc(d.window, d.fire)
}

// Pending reports whether a call is scheduled
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any scheduled call; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
