package shading

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestDebounceArmsThenFires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebounceTimer(clock, 2*time.Minute)

	if d.Observe(true) {
		t.Error("elapsed on first observation, want armed only")
	}

	clock.Advance(119 * time.Second)
	if d.Observe(true) {
		t.Error("elapsed 1s before the delay")
	}

	clock.Advance(time.Second)
	if !d.Observe(true) {
		t.Error("not elapsed after the condition held for the full delay")
	}

	// Stays elapsed on every subsequent check.
	clock.Advance(time.Hour)
	if !d.Observe(true) {
		t.Error("elapsed signal did not latch")
	}
}

func TestDebounceFalseConditionDisarms(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebounceTimer(clock, time.Minute)

	d.Observe(true)
	clock.Advance(2 * time.Minute)
	if !d.Observe(true) {
		t.Fatal("not elapsed after holding past the delay")
	}

	if d.Observe(false) {
		t.Error("elapsed while the condition is false")
	}

	// A false observation must restart the clock from scratch.
	if d.Observe(true) {
		t.Error("elapsed immediately after re-arming")
	}
	clock.Advance(59 * time.Second)
	if d.Observe(true) {
		t.Error("elapsed before the full delay on the second arming")
	}
	clock.Advance(time.Second)
	if !d.Observe(true) {
		t.Error("not elapsed after the second full delay")
	}
}

func TestDebounceReset(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebounceTimer(clock, time.Minute)

	d.Observe(true)
	clock.Advance(2 * time.Minute)
	d.Reset()

	if d.Observe(true) {
		t.Error("elapsed right after reset, want re-armed")
	}
}

func TestDebounceZeroDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebounceTimer(clock, 0)

	if !d.Observe(true) {
		t.Error("zero delay should elapse on the first true observation")
	}
}

func TestDebounceSetDelayKeepsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	d := NewDebounceTimer(clock, 10*time.Minute)

	d.Observe(true)
	clock.Advance(time.Minute)

	// Shrinking the delay applies against the original pending instant.
	d.SetDelay(time.Minute)
	if !d.Observe(true) {
		t.Error("not elapsed after delay shrank below the held duration")
	}
}
