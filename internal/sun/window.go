package sun

import (
	"fmt"
	"math"
	"time"
)

// SearchDirection selects which way in time NextCrossing scans.
type SearchDirection int

const (
	// SearchForward scans from the starting instant into the future.
	SearchForward SearchDirection = iota

	// SearchBackward scans from the starting instant into the past.
	SearchBackward
)

// Search phase resolution.
const (
	// coarseSteps is the number of one-hour samples in the coarse phase.
	coarseSteps = 24

	// fineSteps is the number of one-minute samples in the fine phase.
	fineSteps = 60

	// DefaultTolerance is the maximum angular distance between target
	// azimuth and the best coarse sample before the search concludes the
	// sun never comes into range that day.
	DefaultTolerance = 10.0
)

// Geometry supplies sun positions to the range search. Location
// implements it; tests substitute a synthetic sky.
type Geometry interface {
	SunPosition(t time.Time) Position
}

// Window tracks the sun-in-range interval for one facade.
//
// The target azimuths derive from the configured cardinal direction and
// the ± angular window: targetStart = (direction − startOffset) mod 360,
// targetStop = (direction + stopOffset) mod 360.
//
// Start and Stop hold the current window; both are zero until the first
// successful Search. The window is owned exclusively by one shading
// state machine and must not be shared.
type Window struct {
	geo         Geometry
	targetStart float64
	targetStop  float64
	tolerance   float64

	Start time.Time
	Stop  time.Time
}

// NewWindow builds a Window for a facade facing direction degrees, with
// the in-range arc [direction−startOffset, direction+stopOffset].
// A tolerance of 0 selects DefaultTolerance.
func NewWindow(geo Geometry, direction, startOffset, stopOffset, tolerance float64) *Window {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Window{
		geo:         geo,
		targetStart: normalizeAngle(direction - startOffset),
		targetStop:  normalizeAngle(direction + stopOffset),
		tolerance:   tolerance,
	}
}

// Search recomputes the window if it has lapsed.
//
// The search is memoized: while now has not passed the current Stop
// instant, the call is a no-op. On recomputation the stop crossing is
// searched forward from now and the start crossing backward from the
// resulting stop, which guarantees Start ≤ Stop.
//
// If either crossing cannot be found within tolerance (polar locations,
// misconfigured windows), the previous window is kept and ErrNoCrossing
// is returned; the caller retries on a later tick.
func (w *Window) Search(now time.Time) error {
	if !w.Stop.IsZero() && !now.After(w.Stop) {
		return nil
	}

	stop, err := w.NextCrossing(now, w.targetStop, SearchForward)
	if err != nil {
		return fmt.Errorf("stop crossing: %w", err)
	}

	start, err := w.NextCrossing(stop, w.targetStart, SearchBackward)
	if err != nil {
		return fmt.Errorf("start crossing: %w", err)
	}

	w.Start = start
	w.Stop = stop
	return nil
}

// Contains reports whether t lies within the current window, inclusive.
func (w *Window) Contains(t time.Time) bool {
	if w.Start.IsZero() && w.Stop.IsZero() {
		return false
	}
	return !t.Before(w.Start) && !t.After(w.Stop)
}

// NextCrossing finds the instant nearest from at which the sun's azimuth
// crosses target, scanning in the given direction.
//
// The search is two-phase to bound the number of geometry evaluations:
// a coarse pass samples hourly across a 24-step scan window and keeps
// the sample closest to the target azimuth; the true crossing is then
// bracketed into the adjacent hour by comparing the target against the
// closest sample and its predecessor, and a fine pass re-samples that
// hour at one-minute resolution. At most 24 + 60 evaluations per call.
func (w *Window) NextCrossing(from time.Time, target float64, dir SearchDirection) (time.Time, error) {
	step := time.Hour
	if dir == SearchBackward {
		step = -time.Hour
	}

	// Coarse phase: hourly samples across one day.
	bestK := 0
	bestDist := math.Inf(1)
	for k := 0; k < coarseSteps; k++ {
		sample := from.Add(time.Duration(k) * step)
		dist := angularDistance(w.geo.SunPosition(sample).Azimuth, target)
		if dist < bestDist {
			bestDist = dist
			bestK = k
		}
	}

	if bestDist > w.tolerance {
		return time.Time{}, fmt.Errorf("%w: best sample %.1f° from target %.1f°", ErrNoCrossing, bestDist, target)
	}

	// Bracket: the crossing lies in the hour before or after the best
	// sample, decided by whether the target falls between the best
	// sample's azimuth and its predecessor's.
	best := from.Add(time.Duration(bestK) * step)
	bracketStart := best
	bracketEnd := best.Add(step)
	if bestK > 0 {
		pred := best.Add(-step)
		predAz := w.geo.SunPosition(pred).Azimuth
		bestAz := w.geo.SunPosition(best).Azimuth
		if azimuthBetween(target, predAz, bestAz) {
			bracketStart = pred
			bracketEnd = best
		}
	}

	// Fine phase: one-minute samples across the bracketed hour.
	fineStep := bracketEnd.Sub(bracketStart) / fineSteps
	bestT := bracketStart
	bestDist = math.Inf(1)
	for m := 0; m <= fineSteps; m++ {
		sample := bracketStart.Add(time.Duration(m) * fineStep)
		dist := angularDistance(w.geo.SunPosition(sample).Azimuth, target)
		if dist < bestDist {
			bestDist = dist
			bestT = sample
		}
	}

	return bestT, nil
}

// normalizeAngle wraps an angle into [0, 360).
func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// angularDifference returns the signed shortest difference a−b in
// (−180, 180].
func angularDifference(a, b float64) float64 {
	return math.Mod(a-b+540, 360) - 180
}

// angularDistance returns the unsigned shortest distance between two
// azimuths, in [0, 180].
func angularDistance(a, b float64) float64 {
	return math.Abs(angularDifference(a, b))
}

// azimuthBetween reports whether target lies on the shortest arc swept
// from a to b.
func azimuthBetween(target, a, b float64) bool {
	span := angularDifference(b, a)
	offset := angularDifference(target, a)
	if span >= 0 {
		return offset >= 0 && offset <= span
	}
	return offset <= 0 && offset >= span
}
