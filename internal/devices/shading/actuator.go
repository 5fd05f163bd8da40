package shading

import (
	"context"
	"fmt"
	"math"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/knx"
)

// axis tracks the last value written to one actuator channel so that
// repeated commands for an unchanged position never reach the bus.
type axis struct {
	ga   knx.GroupAddress
	last float64
	sent bool
}

// write encodes the percentage as DPT 5.001 and sends it, unless the
// value already on the wire matches. When minChange is positive the
// write is additionally suppressed while the delta stays below it;
// forced moves pass 0 to bypass the threshold.
func (a *axis) write(ctx context.Context, bus device.BusWriter, percent, minChange float64) (bool, error) {
	if a.sent {
		delta := math.Abs(percent - a.last)
		if delta == 0 {
			return false, nil
		}
		if minChange > 0 && delta < minChange {
			return false, nil
		}
	}

	if err := bus.Send(ctx, a.ga, knx.EncodeDPT5(percent)); err != nil {
		return false, fmt.Errorf("shading: write %s: %w", a.ga, err)
	}

	a.last = percent
	a.sent = true
	return true, nil
}

// Actuator drives the height and slat channels of one shading actuator
// with per-axis write minimisation.
type Actuator struct {
	bus    device.BusWriter
	height axis
	slat   axis
}

// NewActuator binds the two actuator group addresses.
func NewActuator(bus device.BusWriter, heightGA, slatGA knx.GroupAddress) *Actuator {
	return &Actuator{
		bus:    bus,
		height: axis{ga: heightGA},
		slat:   axis{ga: slatGA},
	}
}

// Move commands both axes to an absolute position, writing only the
// axes whose value actually changed. Used for the rest and fully shaded
// positions where any change must go out. Reports whether any telegram
// went out.
func (a *Actuator) Move(ctx context.Context, heightPercent, slatPercent float64) (bool, error) {
	wroteHeight, err := a.height.write(ctx, a.bus, heightPercent, 0)
	if err != nil {
		return wroteHeight, err
	}
	wroteSlat, err := a.slat.write(ctx, a.bus, slatPercent, 0)
	if err != nil {
		return wroteHeight || wroteSlat, err
	}
	return wroteHeight || wroteSlat, nil
}

// TrackSlat commands the slat axis only, suppressing writes whose delta
// against the last sent value stays below minChange. Reports whether a
// telegram went out.
func (a *Actuator) TrackSlat(ctx context.Context, slatPercent, minChange float64) (bool, error) {
	return a.slat.write(ctx, a.bus, slatPercent, minChange)
}

// LastHeight returns the last height written and whether anything has
// been written at all.
func (a *Actuator) LastHeight() (float64, bool) { return a.height.last, a.height.sent }

// LastSlat returns the last slat position written and whether anything
// has been written at all.
func (a *Actuator) LastSlat() (float64, bool) { return a.slat.last, a.slat.sent }

// SetHeight commands the height axis only, bypassing the min-change
// threshold. Reports whether a telegram went out.
func (a *Actuator) SetHeight(ctx context.Context, heightPercent float64) (bool, error) {
	return a.height.write(ctx, a.bus, heightPercent, 0)
}

// Restore reinstates persisted last-sent values so a restart does not
// replay positions the actuator already holds.
func (a *Actuator) Restore(heightPercent float64, heightSent bool, slatPercent float64, slatSent bool) {
	a.height.last, a.height.sent = heightPercent, heightSent
	a.slat.last, a.slat.sent = slatPercent, slatSent
}
