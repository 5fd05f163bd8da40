package sun

import (
	"errors"
	"math"
	"testing"
	"time"
)

// fakeSky is a synthetic sun whose azimuth advances linearly at
// 15°/hour from 0° at epoch, mimicking the real sun's mean motion.
type fakeSky struct {
	epoch time.Time
	calls int
}

func (f *fakeSky) SunPosition(t time.Time) Position {
	f.calls++
	hours := t.Sub(f.epoch).Hours()
	return Position{
		Elevation: 30,
		Azimuth:   normalizeAngle(15 * hours),
	}
}

var epoch = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

// ─── NextCrossing ──────────────────────────────────────────────────

func TestNextCrossingForward(t *testing.T) {
	sky := &fakeSky{epoch: epoch}
	w := NewWindow(sky, 180, 45, 45, 0)

	got, err := w.NextCrossing(epoch, 180, SearchForward)
	if err != nil {
		t.Fatalf("NextCrossing() error = %v", err)
	}

	want := epoch.Add(12 * time.Hour)
	if diff := got.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("NextCrossing(180, forward) = %v, want %v ± 1min", got, want)
	}
}

func TestNextCrossingBackward(t *testing.T) {
	sky := &fakeSky{epoch: epoch}
	w := NewWindow(sky, 180, 45, 45, 0)

	from := epoch.Add(12 * time.Hour) // azimuth 180 here
	got, err := w.NextCrossing(from, 90, SearchBackward)
	if err != nil {
		t.Fatalf("NextCrossing() error = %v", err)
	}

	want := epoch.Add(6 * time.Hour)
	if diff := got.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("NextCrossing(90, backward) = %v, want %v ± 1min", got, want)
	}
}

func TestNextCrossingSubHourPrecision(t *testing.T) {
	sky := &fakeSky{epoch: epoch}
	w := NewWindow(sky, 180, 45, 45, 0)

	// 187.5° is crossed at 12h30m, between two coarse samples.
	got, err := w.NextCrossing(epoch, 187.5, SearchForward)
	if err != nil {
		t.Fatalf("NextCrossing() error = %v", err)
	}

	want := epoch.Add(12*time.Hour + 30*time.Minute)
	if diff := got.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("NextCrossing(187.5) = %v, want %v ± 1min", got, want)
	}
}

func TestNextCrossingEvaluationBudget(t *testing.T) {
	sky := &fakeSky{epoch: epoch}
	w := NewWindow(sky, 180, 45, 45, 0)

	if _, err := w.NextCrossing(epoch, 180, SearchForward); err != nil {
		t.Fatalf("NextCrossing() error = %v", err)
	}

	// Coarse (24) + bracket lookups + fine (61) with a little slack.
	if sky.calls > 24+61+2 {
		t.Errorf("NextCrossing used %d geometry evaluations, budget is 87", sky.calls)
	}
}

func TestNextCrossingNoCrossing(t *testing.T) {
	// A sky stuck at azimuth 0 never approaches 180.
	sky := geometryFunc(func(time.Time) Position { return Position{Azimuth: 0} })
	w := NewWindow(sky, 180, 45, 45, 10)

	_, err := w.NextCrossing(epoch, 180, SearchForward)
	if !errors.Is(err, ErrNoCrossing) {
		t.Errorf("NextCrossing() error = %v, want ErrNoCrossing", err)
	}
}

type geometryFunc func(time.Time) Position

func (f geometryFunc) SunPosition(t time.Time) Position { return f(t) }

// ─── Search ────────────────────────────────────────────────────────

func TestSearchOrdering(t *testing.T) {
	sky := &fakeSky{epoch: epoch}
	w := NewWindow(sky, 180, 45, 45, 0)

	if err := w.Search(epoch); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if w.Start.IsZero() || w.Stop.IsZero() {
		t.Fatal("Search() left window unset")
	}
	if w.Start.After(w.Stop) {
		t.Errorf("Start %v after Stop %v", w.Start, w.Stop)
	}

	// targetStart=135 crossed at 9h, targetStop=225 at 15h.
	wantStart := epoch.Add(9 * time.Hour)
	wantStop := epoch.Add(15 * time.Hour)
	if diff := w.Start.Sub(wantStart); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Start = %v, want %v ± 1min", w.Start, wantStart)
	}
	if diff := w.Stop.Sub(wantStop); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Stop = %v, want %v ± 1min", w.Stop, wantStop)
	}

	if !w.Contains(epoch.Add(12 * time.Hour)) {
		t.Error("Contains(midday) = false, want true")
	}
	if w.Contains(epoch.Add(20 * time.Hour)) {
		t.Error("Contains(evening) = true, want false")
	}
}

func TestSearchMemoized(t *testing.T) {
	sky := &fakeSky{epoch: epoch}
	w := NewWindow(sky, 180, 45, 45, 0)

	if err := w.Search(epoch); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	start, stop := w.Start, w.Stop
	calls := sky.calls

	// A second search before Stop has passed must not re-evaluate.
	if err := w.Search(epoch.Add(10 * time.Hour)); err != nil {
		t.Fatalf("second Search() error = %v", err)
	}
	if sky.calls != calls {
		t.Errorf("memoized Search() evaluated geometry %d more times", sky.calls-calls)
	}
	if !w.Start.Equal(start) || !w.Stop.Equal(stop) {
		t.Error("memoized Search() changed the window")
	}

	// After Stop has passed, a new window is computed.
	if err := w.Search(w.Stop.Add(time.Minute)); err != nil {
		t.Fatalf("post-stop Search() error = %v", err)
	}
	if !w.Stop.After(stop) {
		t.Errorf("post-stop Search() did not advance the window: %v", w.Stop)
	}
	if w.Start.After(w.Stop) {
		t.Error("recomputed window violates Start <= Stop")
	}
}

func TestSearchNoCrossingKeepsWindow(t *testing.T) {
	sky := geometryFunc(func(time.Time) Position { return Position{Azimuth: 0} })
	w := NewWindow(sky, 180, 45, 45, 10)

	err := w.Search(epoch)
	if !errors.Is(err, ErrNoCrossing) {
		t.Fatalf("Search() error = %v, want ErrNoCrossing", err)
	}
	if !w.Start.IsZero() || !w.Stop.IsZero() {
		t.Error("failed Search() must not set a spurious window")
	}
	if w.Contains(epoch) {
		t.Error("Contains() must be false with no window")
	}
}

// ─── Angle helpers ─────────────────────────────────────────────────

func TestAngularDistance(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{350, 10, 20},
		{180, 0, 180},
		{90, 270, 180},
		{359, 1, 2},
	}

	for _, tt := range tests {
		if got := angularDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("angularDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAzimuthBetween(t *testing.T) {
	tests := []struct {
		name      string
		target    float64
		a, b      float64
		want      bool
	}{
		{"inside simple arc", 170, 165, 180, true},
		{"outside simple arc", 190, 165, 180, false},
		{"inside wrapped arc", 5, 350, 20, true},
		{"outside wrapped arc", 340, 350, 20, false},
		{"inside reversed arc", 170, 180, 165, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := azimuthBetween(tt.target, tt.a, tt.b); got != tt.want {
				t.Errorf("azimuthBetween(%v, %v, %v) = %v, want %v", tt.target, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{360, 0},
		{-45, 315},
		{405, 45},
		{135, 135},
	}

	for _, tt := range tests {
		if got := normalizeAngle(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
