package shading

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DebounceTimer turns a boolean condition that may flicker into a
// stable signal, delayed by a configurable duration.
//
// The timer arms on the first true observation and fires once the
// condition has held continuously for at least the delay; it then stays
// fired on every subsequent check until the condition goes false or
// Reset is called.
type DebounceTimer struct {
	clock        clockwork.Clock
	delay        time.Duration
	pendingSince time.Time
}

// NewDebounceTimer creates a timer with the given delay.
func NewDebounceTimer(clock clockwork.Clock, delay time.Duration) *DebounceTimer {
	return &DebounceTimer{clock: clock, delay: delay}
}

// Observe feeds one evaluation of the condition and reports whether it
// has held continuously for at least the delay.
//
//   - condition false: clears the pending instant, returns false.
//   - condition true, not yet pending: arms the timer, returns false.
//   - condition true, pending: returns now − pendingSince ≥ delay.
func (d *DebounceTimer) Observe(condition bool) bool {
	if !condition {
		d.pendingSince = time.Time{}
		return false
	}

	now := d.clock.Now()
	if d.pendingSince.IsZero() {
		d.pendingSince = now
		return d.delay <= 0
	}

	return now.Sub(d.pendingSince) >= d.delay
}

// Reset clears the pending instant without touching the delay.
func (d *DebounceTimer) Reset() {
	d.pendingSince = time.Time{}
}

// SetDelay changes the threshold for future evaluations. An already
// pending timer keeps its pending instant.
func (d *DebounceTimer) SetDelay(delay time.Duration) {
	d.delay = delay
}

// Delay returns the configured delay.
func (d *DebounceTimer) Delay() time.Duration {
	return d.delay
}

// PendingSince returns the instant the condition first went true, or a
// zero time if the timer is not armed. Used by state persistence.
func (d *DebounceTimer) PendingSince() time.Time {
	return d.pendingSince
}

// Restore reinstates a persisted pending instant.
func (d *DebounceTimer) Restore(pendingSince time.Time) {
	d.pendingSince = pendingSince
}
