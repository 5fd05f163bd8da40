// Package inverter implements the logic-inverter device: every boolean
// telegram arriving on the input address is written back, negated, to
// the output address. A typical use is turning a window-contact "open"
// signal into a shading "disable" signal.
package inverter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/infrastructure/logging"
	"github.com/shadowline/shadowline-core/internal/knx"
)

// RoleInput is the boolean sensor the device listens on.
const RoleInput = "input"

// RoleOutput is the boolean actuator the device writes to.
const RoleOutput = "output"

// Device negates one boolean group address onto another.
type Device struct {
	name   string
	output knx.GroupAddress
	bus    device.BusWriter
	log    *logging.Logger
	status device.StatusPublisher
}

var _ device.Device = (*Device)(nil)

// New builds an inverter writing to the given output address.
func New(name string, output knx.GroupAddress, deps device.Deps) *Device {
	deps = deps.FillDefaults()
	return &Device{
		name:   name,
		output: output,
		bus:    deps.Bus,
		log:    deps.Log.With("device", name, "kind", "logic_inverter"),
		status: deps.Status,
	}
}

// Init is a no-op: the inverter is purely reactive.
func (d *Device) Init(context.Context) error { return nil }

// HandleSensor writes the negated input value. Unlike the shading
// device the inverter forwards every telegram, including repeats, so
// that the downstream address sees the same write cadence as the
// source.
func (d *Device) HandleSensor(ctx context.Context, role string, tg knx.Telegram) error {
	if role != RoleInput {
		return fmt.Errorf("%w: %q", device.ErrUnknownSensor, role)
	}
	if !tg.HasPayload() {
		return nil
	}

	v, err := knx.DecodeDPT1(tg.Data)
	if err != nil {
		d.log.Debug("undecodable input payload", "error", err)
		return nil
	}

	if err := d.bus.Send(ctx, d.output, knx.EncodeDPT1(!v)); err != nil {
		return fmt.Errorf("inverter: write %s: %w", d.output, err)
	}
	d.status.PublishStatus(d.name, "output", []byte(strconv.FormatBool(!v)))
	return nil
}

// StateSave returns nil: the inverter holds no state worth a restart.
func (d *Device) StateSave() ([]byte, error) { return nil, nil }

// StateLoad ignores any previously saved blob.
func (d *Device) StateLoad([]byte) error { return nil }
