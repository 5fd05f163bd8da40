package device

import "errors"

// Domain errors for the device runtime.
var (
	// ErrDuplicateDevice is returned when a device name is registered twice.
	ErrDuplicateDevice = errors.New("device: duplicate device name")

	// ErrStateNotFound is returned when no persisted state exists for a
	// device. Callers start the device from its defaults.
	ErrStateNotFound = errors.New("device: no persisted state")

	// ErrUnknownSensor is returned by a device handed a telegram for a
	// sensor role it does not implement.
	ErrUnknownSensor = errors.New("device: unknown sensor role")
)
