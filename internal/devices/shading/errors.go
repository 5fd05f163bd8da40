package shading

import "errors"

var (
	// ErrInvalidParams indicates a device file with shading parameters
	// outside their valid range.
	ErrInvalidParams = errors.New("shading: invalid parameters")

	// ErrStateVersion indicates a persisted state record with a schema
	// version this build does not understand.
	ErrStateVersion = errors.New("shading: unsupported state schema version")

	// ErrStateCorrupt indicates a persisted state record that failed to
	// decode or named an unknown automaton state.
	ErrStateCorrupt = errors.New("shading: corrupt state record")
)
