// Package devices maps device-file kinds onto concrete implementations.
package devices

import (
	"errors"
	"fmt"

	"github.com/shadowline/shadowline-core/internal/device"
	"github.com/shadowline/shadowline-core/internal/devices/inverter"
	"github.com/shadowline/shadowline-core/internal/devices/shading"
	"github.com/shadowline/shadowline-core/internal/infrastructure/config"
	"github.com/shadowline/shadowline-core/internal/knx"
)

// Device kinds accepted in device files.
const (
	KindAutomaticShading = "automatic_shading"
	KindLogicInverter    = "logic_inverter"
)

// ErrUnknownKind indicates a device file naming a kind this build does
// not implement.
var ErrUnknownKind = errors.New("devices: unknown device kind")

// New builds the device described by cfg and returns it together with
// its sensor bindings for the registry. Bad group-address syntax or a
// missing role fails here, before the device exists.
func New(cfg *config.DeviceConfig, deps device.Deps) (device.Device, map[string]knx.GroupAddress, error) {
	sensors, err := parseAddresses(cfg.Name, "sensor", cfg.Sensors)
	if err != nil {
		return nil, nil, err
	}
	actuators, err := parseAddresses(cfg.Name, "actuator", cfg.Actuators)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Kind {
	case KindAutomaticShading:
		height, ok := actuators[shading.RolePositionHeight]
		if !ok {
			return nil, nil, missingRole(cfg.Name, "actuator", shading.RolePositionHeight)
		}
		slat, ok := actuators[shading.RolePositionSlat]
		if !ok {
			return nil, nil, missingRole(cfg.Name, "actuator", shading.RolePositionSlat)
		}
		params, err := shading.NewParams(cfg.Shading)
		if err != nil {
			return nil, nil, fmt.Errorf("device %q: %w", cfg.Name, err)
		}
		return shading.New(cfg.Name, params, height, slat, deps), sensors, nil

	case KindLogicInverter:
		output, ok := actuators[inverter.RoleOutput]
		if !ok {
			return nil, nil, missingRole(cfg.Name, "actuator", inverter.RoleOutput)
		}
		if _, ok := sensors[inverter.RoleInput]; !ok {
			return nil, nil, missingRole(cfg.Name, "sensor", inverter.RoleInput)
		}
		return inverter.New(cfg.Name, output, deps), sensors, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q (device %q)", ErrUnknownKind, cfg.Kind, cfg.Name)
	}
}

func parseAddresses(device, class string, raw map[string]string) (map[string]knx.GroupAddress, error) {
	out := make(map[string]knx.GroupAddress, len(raw))
	for role, s := range raw {
		ga, err := knx.ParseGroupAddress(s)
		if err != nil {
			return nil, fmt.Errorf("device %q: %s %q: %w", device, class, role, err)
		}
		out[role] = ga
	}
	return out, nil
}

func missingRole(device, class, role string) error {
	return fmt.Errorf("device %q: missing %s role %q", device, class, role)
}
