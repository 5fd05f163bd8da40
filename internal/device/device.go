package device

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shadowline/shadowline-core/internal/infrastructure/logging"
	"github.com/shadowline/shadowline-core/internal/knx"
	"github.com/shadowline/shadowline-core/internal/scheduler"
	"github.com/shadowline/shadowline-core/internal/sun"
)

// Device is the lifecycle contract every device kind implements.
//
// A device owns its state exclusively; the runtime only talks to it
// through these methods, and serialises calls per device instance.
type Device interface {
	// Init starts the device: scheduling its jobs and performing any
	// first-run work. Called once, after StateLoad.
	Init(ctx context.Context) error

	// HandleSensor processes one inbound telegram for the named sensor
	// role. Handlers must ignore payload-less frames.
	HandleSensor(ctx context.Context, role string, tg knx.Telegram) error

	// StateSave serialises the device's state into a versioned record.
	// A nil blob means the device has nothing to persist.
	StateSave() ([]byte, error)

	// StateLoad restores a previously saved record. An unreadable or
	// incompatible record is an error; the caller falls back to the
	// device's defaults.
	StateLoad(blob []byte) error
}

// BusWriter is the outbound half of the field bus.
type BusWriter interface {
	Send(ctx context.Context, ga knx.GroupAddress, data []byte) error
}

// Sky supplies sun geometry to devices. sun.Location implements it;
// tests substitute a synthetic sky.
type Sky interface {
	SunPosition(t time.Time) sun.Position
	SunTimes(t time.Time) (dawn, dusk time.Time)
}

// StatusPublisher receives device status updates (state transitions,
// actuator positions) for external observers. Implementations must not
// block the calling handler.
type StatusPublisher interface {
	PublishStatus(device, field string, payload []byte)
}

// Telemetry records measurements for historical storage.
type Telemetry interface {
	RecordBrightness(device string, lux float64)
	RecordActuator(device string, height, slat float64)
	RecordSunPosition(device string, elevation, azimuth float64)
}

// NopStatus discards status updates; used when MQTT is disabled.
type NopStatus struct{}

func (NopStatus) PublishStatus(string, string, []byte) {}

// NopTelemetry discards measurements; used when InfluxDB is disabled.
type NopTelemetry struct{}

func (NopTelemetry) RecordBrightness(string, float64)           {}
func (NopTelemetry) RecordActuator(string, float64, float64)    {}
func (NopTelemetry) RecordSunPosition(string, float64, float64) {}

// Deps bundles the collaborators handed to every device constructor.
type Deps struct {
	Bus       BusWriter
	Scheduler scheduler.Scheduler
	Location  Sky
	Log       *logging.Logger
	Status    StatusPublisher
	Telemetry Telemetry

	// Clock supplies time to the automata; tests install a fake.
	// Nil selects the real clock.
	Clock clockwork.Clock
}

// FillDefaults replaces nil collaborators with inert implementations.
func (d Deps) FillDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Status == nil {
		d.Status = NopStatus{}
	}
	if d.Telemetry == nil {
		d.Telemetry = NopTelemetry{}
	}
	if d.Log == nil {
		d.Log = logging.Default()
	}
	return d
}

// Now is a convenience for device code.
func (d Deps) Now() time.Time {
	return d.Clock.Now()
}
