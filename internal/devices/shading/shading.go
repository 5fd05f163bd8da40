package shading

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/infrastructure/logging"
	"github.com/shadowline/shadowline-core/internal/knx"
	"github.com/shadowline/shadowline-core/internal/scheduler"
	"github.com/shadowline/shadowline-core/internal/sun"
)

// Sensor roles the device listens on.
const (
	RoleEnable             = "enable"
	RoleOutdoorBrightness  = "outdoor_brightness"
	RoleBrightnessSetpoint = "brightness_setpoint"
	RoleSwitchOnDelay      = "switch_on_delay"
	RoleSwitchOffDelay     = "switch_off_delay"
)

// Actuator roles the device writes to.
const (
	RolePositionHeight = "position_height"
	RolePositionSlat   = "position_slat"
)

// Rest and fully shaded positions, in percent.
const (
	restHeight = 0.0
	restSlat   = 0.0

	shadeHeight = 100.0
	shadeSlat   = 100.0
)

// State is the automaton's current mode.
type State int

const (
	// Idle: the sun is outside the facade's angular window.
	Idle State = iota

	// ShadingReady: the sun is in range but not bright enough for long
	// enough to justify shading.
	ShadingReady

	// Shading: the shade is down and the slat tracks the sun elevation.
	Shading
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ShadingReady:
		return "shading_ready"
	case Shading:
		return "shading"
	default:
		return "unknown"
	}
}

func stateFromString(s string) (State, error) {
	switch s {
	case "idle":
		return Idle, nil
	case "shading_ready":
		return ShadingReady, nil
	case "shading":
		return Shading, nil
	default:
		return Idle, fmt.Errorf("%w: unknown state %q", ErrStateCorrupt, s)
	}
}

// Device is the automatic-shading automaton for one facade.
//
// Two event sources drive it: the periodic scheduler tick and inbound
// sensor telegrams. Both funnel into evaluate, which runs the state
// machine exactly once per event. All mutable state is guarded by mu;
// scheduler jobs and sensor handlers never run concurrently for the
// same device.
type Device struct {
	name   string
	params Params
	deps   device.Deps
	log    *logging.Logger

	mu sync.Mutex

	enabled   bool
	state     State
	sunActive bool

	brightness float64
	setpoint   float64

	onTimer  *DebounceTimer
	offTimer *DebounceTimer

	window   *sun.Window
	actuator *Actuator

	tickJob     scheduler.JobID
	dayNightJob scheduler.JobID
}

var _ device.Device = (*Device)(nil)

// New builds a shading device. The group addresses are the two actuator
// channels; sensor addresses are bound by the registry, not here.
func New(name string, params Params, heightGA, slatGA knx.GroupAddress, deps device.Deps) *Device {
	deps = deps.FillDefaults()
	return &Device{
		name:     name,
		params:   params,
		deps:     deps,
		log:      deps.Log.With("device", name, "kind", "automatic_shading"),
		enabled:  true,
		state:    Idle,
		setpoint: params.BrightnessSetpoint,
		onTimer:  NewDebounceTimer(deps.Clock, params.SwitchOnDelay),
		offTimer: NewDebounceTimer(deps.Clock, params.SwitchOffDelay),
		window: sun.NewWindow(deps.Location, params.CardinalDirection,
			params.RangeStart, params.RangeStop, params.SearchTolerance),
		actuator: NewActuator(deps.Bus, heightGA, slatGA),
	}
}

// Init schedules the periodic tick and the next day/night transition.
// Called once at startup, after StateLoad.
func (d *Device) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled {
		d.log.Info("device disabled, not scheduling")
		return nil
	}
	return d.startJobs(ctx)
}

// startJobs registers the periodic tick and the next dawn/dusk one-shot.
// Caller holds mu.
func (d *Device) startJobs(ctx context.Context) error {
	tick, err := d.deps.Scheduler.ScheduleEvery(d.params.TickInterval, func() {
		d.tick(context.Background())
	})
	if err != nil {
		return fmt.Errorf("shading: scheduling tick: %w", err)
	}
	d.tickJob = tick

	if err := d.scheduleDayNight(ctx); err != nil {
		d.deps.Scheduler.Cancel(d.tickJob)
		d.tickJob = scheduler.JobID{}
		return err
	}

	d.log.Info("jobs scheduled",
		"tick_interval", d.params.TickInterval,
		"state", d.state.String())
	return nil
}

// cancelJobs removes every pending job for this device. Caller holds mu.
func (d *Device) cancelJobs() {
	if err := d.deps.Scheduler.Cancel(d.tickJob); err != nil {
		d.log.Warn("cancelling tick job", "error", err)
	}
	if err := d.deps.Scheduler.Cancel(d.dayNightJob); err != nil {
		d.log.Warn("cancelling day/night job", "error", err)
	}
	d.tickJob = scheduler.JobID{}
	d.dayNightJob = scheduler.JobID{}
}

// scheduleDayNight registers a one-shot at the next dawn or dusk.
// Dawn opens the shade fully, dusk closes it fully; the fired job
// reschedules itself for the following transition. Caller holds mu.
func (d *Device) scheduleDayNight(ctx context.Context) error {
	now := d.deps.Now()

	at, open := d.nextDayNight(now)
	job, err := d.deps.Scheduler.ScheduleAt(at, func() {
		d.dayNightFire(context.Background(), open)
	})
	if err != nil {
		return fmt.Errorf("shading: scheduling day/night transition: %w", err)
	}
	d.dayNightJob = job

	d.log.Debug("day/night transition scheduled", "at", at, "open", open)
	return nil
}

// nextDayNight picks the next dawn or dusk after now. When both of
// today's transitions have passed, tomorrow's dawn is next.
func (d *Device) nextDayNight(now time.Time) (at time.Time, open bool) {
	dawn, dusk := d.deps.Location.SunTimes(now)
	switch {
	case now.Before(dawn):
		return dawn, true
	case now.Before(dusk):
		return dusk, false
	default:
		dawn, _ = d.deps.Location.SunTimes(now.AddDate(0, 0, 1))
		return dawn, true
	}
}

// dayNightFire drives the shade fully open at dawn or fully closed at
// dusk, then schedules the following transition.
func (d *Device) dayNightFire(ctx context.Context, open bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled {
		return
	}

	height, slat := shadeHeight, shadeSlat
	if open {
		height, slat = restHeight, restSlat
	}
	wrote, err := d.actuator.Move(ctx, height, slat)
	if err != nil {
		d.log.Error("day/night actuator move failed", "error", err)
	} else {
		if wrote {
			d.publishPosition(height, slat)
		}
		d.log.Info("day/night transition", "open", open)
	}

	if err := d.scheduleDayNight(ctx); err != nil {
		d.log.Error("rescheduling day/night transition failed", "error", err)
	}
}

// tick is the periodic scheduler entry point.
func (d *Device) tick(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.enabled {
		return
	}
	d.evaluate(ctx)
}

// evaluate runs one pass of the state machine. Caller holds mu.
func (d *Device) evaluate(ctx context.Context) {
	now := d.deps.Now()

	if err := d.window.Search(now); err != nil {
		// No crossing today; the stale window keeps the machine out of
		// range and the next tick retries.
		d.log.Debug("sun range search", "error", err)
	}

	// Both debounce timers run every pass; hysteresis depends on the
	// loser being reset by its own false condition.
	if d.onTimer.Observe(d.setpoint < d.brightness) {
		d.sunActive = true
	}
	if d.offTimer.Observe(d.sunActive && d.brightness < d.setpoint) {
		d.sunActive = false
	}

	sunInRange := d.window.Contains(now)

	switch d.state {
	case Idle:
		if sunInRange {
			d.transition(ShadingReady)
		}

	case ShadingReady:
		if !sunInRange {
			d.moveRest(ctx)
			d.transition(Idle)
			return
		}
		if d.sunActive {
			d.startShading(ctx, now)
		}

	case Shading:
		if !sunInRange || !d.sunActive {
			// The way out of Shading always passes through ShadingReady;
			// an out-of-range sun drops to Idle on the following pass.
			d.moveRest(ctx)
			d.transition(ShadingReady)
			return
		}
		d.trackSlat(ctx, now)
	}
}

// startShading drops the shade and tilts the slat for the current sun
// elevation. Caller holds mu.
func (d *Device) startShading(ctx context.Context, now time.Time) {
	pos := d.deps.Location.SunPosition(now)
	slat := SlatAngle(pos.Elevation, d.params.SlatWidth, d.params.SlatSpacing)

	if _, err := d.actuator.Move(ctx, shadeHeight, slat); err != nil {
		d.log.Error("shading move failed", "error", err)
		return
	}
	d.publishPosition(shadeHeight, slat)
	d.deps.Telemetry.RecordSunPosition(d.name, pos.Elevation, pos.Azimuth)
	d.transition(Shading)
}

// trackSlat recomputes the slat angle and writes it only when it moved
// by at least the tracking threshold. Caller holds mu.
func (d *Device) trackSlat(ctx context.Context, now time.Time) {
	pos := d.deps.Location.SunPosition(now)
	slat := SlatAngle(pos.Elevation, d.params.SlatWidth, d.params.SlatSpacing)

	if _, err := d.actuator.SetHeight(ctx, shadeHeight); err != nil {
		d.log.Error("height hold failed", "error", err)
		return
	}

	wrote, err := d.actuator.TrackSlat(ctx, slat, d.params.MinChangeTracking)
	if err != nil {
		d.log.Error("slat tracking failed", "error", err)
		return
	}
	if wrote {
		d.publishPosition(shadeHeight, slat)
		d.deps.Telemetry.RecordSunPosition(d.name, pos.Elevation, pos.Azimuth)
		d.log.Debug("slat adjusted", "slat", slat, "elevation", pos.Elevation)
	}
}

// moveRest returns the shade to the non-shading rest position.
// Caller holds mu.
func (d *Device) moveRest(ctx context.Context) {
	wrote, err := d.actuator.Move(ctx, restHeight, restSlat)
	if err != nil {
		d.log.Error("rest move failed", "error", err)
		return
	}
	if wrote {
		d.publishPosition(restHeight, restSlat)
	}
}

// transition changes state and announces it. Caller holds mu.
func (d *Device) transition(next State) {
	if next == d.state {
		return
	}
	d.log.Info("state transition", "from", d.state.String(), "to", next.String())
	d.state = next
	d.deps.Status.PublishStatus(d.name, "state", []byte(next.String()))
}

func (d *Device) publishPosition(height, slat float64) {
	d.deps.Status.PublishStatus(d.name, "position",
		[]byte(fmt.Sprintf(`{"height":%s,"slat":%s}`,
			strconv.FormatFloat(height, 'f', -1, 64),
			strconv.FormatFloat(slat, 'f', -1, 64))))
	d.deps.Telemetry.RecordActuator(d.name, height, slat)
}

// HandleSensor processes one inbound telegram for the named role.
// Payload-less frames (group reads) and undecodable payloads are
// ignored without state mutation.
func (d *Device) HandleSensor(ctx context.Context, role string, tg knx.Telegram) error {
	if !tg.HasPayload() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch role {
	case RoleEnable:
		v, err := knx.DecodeDPT1(tg.Data)
		if err != nil {
			d.log.Debug("undecodable enable payload", "error", err)
			return nil
		}
		d.setEnabled(ctx, v)

	case RoleOutdoorBrightness:
		v, err := knx.DecodeDPT9(tg.Data)
		if err != nil {
			d.log.Debug("undecodable brightness payload", "error", err)
			return nil
		}
		d.brightness = v
		d.deps.Telemetry.RecordBrightness(d.name, v)
		if d.enabled {
			d.evaluate(ctx)
		}

	case RoleBrightnessSetpoint:
		v, err := knx.DecodeDPT9(tg.Data)
		if err != nil {
			d.log.Debug("undecodable setpoint payload", "error", err)
			return nil
		}
		d.setpoint = v
		d.log.Info("brightness setpoint changed", "setpoint", v)
		if d.enabled {
			d.evaluate(ctx)
		}

	case RoleSwitchOnDelay:
		v, err := knx.DecodeDPT7(tg.Data)
		if err != nil {
			d.log.Debug("undecodable on-delay payload", "error", err)
			return nil
		}
		d.onTimer.SetDelay(time.Duration(v) * time.Second)
		d.log.Info("switch-on delay changed", "delay_s", v)

	case RoleSwitchOffDelay:
		v, err := knx.DecodeDPT7(tg.Data)
		if err != nil {
			d.log.Debug("undecodable off-delay payload", "error", err)
			return nil
		}
		d.offTimer.SetDelay(time.Duration(v) * time.Second)
		d.log.Info("switch-off delay changed", "delay_s", v)

	default:
		return fmt.Errorf("%w: %q", device.ErrUnknownSensor, role)
	}
	return nil
}

// setEnabled applies an enable-sensor transition. Redundant writes are
// ignored. Disabling cancels every job but leaves the automaton state
// untouched; re-enabling schedules everything from scratch and resumes
// verbatim. Caller holds mu.
func (d *Device) setEnabled(ctx context.Context, enabled bool) {
	if enabled == d.enabled {
		return
	}
	d.enabled = enabled
	d.deps.Status.PublishStatus(d.name, "enabled", []byte(strconv.FormatBool(enabled)))

	if !enabled {
		d.cancelJobs()
		d.log.Info("device disabled", "state", d.state.String())
		return
	}

	d.log.Info("device enabled", "state", d.state.String())
	if err := d.startJobs(ctx); err != nil {
		d.log.Error("rescheduling after enable failed", "error", err)
	}
}

// State returns the automaton's current mode.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Enabled reports whether the device is currently enabled.
func (d *Device) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}
