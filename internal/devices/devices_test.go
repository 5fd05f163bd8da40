package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/infrastructure/config"
	"github.com/shadowline/shadowline-core/internal/knx"
)

type nopBus struct{}

func (nopBus) Send(context.Context, knx.GroupAddress, []byte) error { return nil }

func shadingConfig() *config.DeviceConfig {
	return &config.DeviceConfig{
		Name: "facade_south",
		Kind: KindAutomaticShading,
		Sensors: map[string]string{
			"enable":             "2/1/0",
			"outdoor_brightness": "2/1/1",
		},
		Actuators: map[string]string{
			"position_height": "1/2/0",
			"position_slat":   "1/2/1",
		},
		Shading: config.ShadingConfig{
			CardinalDirection: 180,
			RangeStart:        45,
			RangeStop:         45,
			SlatWidth:         80,
			SlatSpacing:       60,
		},
	}
}

func TestNewShadingDevice(t *testing.T) {
	dev, sensors, err := New(shadingConfig(), device.Deps{Bus: nopBus{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dev == nil {
		t.Fatal("New returned nil device")
	}
	if len(sensors) != 2 {
		t.Errorf("sensor bindings = %d, want 2", len(sensors))
	}
	if got := sensors["outdoor_brightness"].String(); got != "2/1/1" {
		t.Errorf("outdoor_brightness bound to %s, want 2/1/1", got)
	}
}

func TestNewRejectsBadGroupAddress(t *testing.T) {
	cfg := shadingConfig()
	cfg.Sensors["enable"] = "32/1/0"

	if _, _, err := New(cfg, device.Deps{Bus: nopBus{}}); !errors.Is(err, knx.ErrInvalidGroupAddress) {
		t.Errorf("bad address error = %v, want ErrInvalidGroupAddress", err)
	}
}

func TestNewRejectsMissingActuatorRole(t *testing.T) {
	cfg := shadingConfig()
	delete(cfg.Actuators, "position_slat")

	if _, _, err := New(cfg, device.Deps{Bus: nopBus{}}); err == nil {
		t.Error("missing actuator role accepted")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	cfg := shadingConfig()
	cfg.Kind = "thermostat"

	if _, _, err := New(cfg, device.Deps{Bus: nopBus{}}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind error = %v, want ErrUnknownKind", err)
	}
}

func TestNewInverter(t *testing.T) {
	cfg := &config.DeviceConfig{
		Name:      "window_contact_inv",
		Kind:      KindLogicInverter,
		Sensors:   map[string]string{"input": "4/0/0"},
		Actuators: map[string]string{"output": "4/0/1"},
	}

	dev, sensors, err := New(cfg, device.Deps{Bus: nopBus{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if dev == nil || len(sensors) != 1 {
		t.Errorf("inverter device %v with %d sensors, want 1", dev, len(sensors))
	}
}
