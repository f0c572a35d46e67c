package watch

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the quiescence window applied to write
// bursts before a change is reported.
const DefaultDebounceDuration = 500 * time.Millisecond

// Debouncer coalesces rapid triggers into one callback invocation once
// no further triggers arrive within the window.
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
}

// NewDebouncer creates a debouncer with the given quiescence window.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration <= 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{duration: duration}
}

// Trigger schedules fn after the window elapses without another
// Trigger call. Successive calls reset the timer.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel drops any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
