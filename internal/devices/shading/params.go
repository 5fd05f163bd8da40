package shading

import (
	"fmt"
	"time"

	"github.com/shadowline/shadowline-core/internal/infrastructure/config"
)

// Default tuning values applied when the device file leaves a field
// unset.
const (
	defaultMinChangeTracking  = 2.0
	defaultSwitchOnDelay      = 2 * time.Minute
	defaultSwitchOffDelay     = 10 * time.Minute
	defaultBrightnessSetpoint = 20000.0
	defaultTickInterval       = time.Minute
)

// Params holds the static tuning of one shading device, immutable after
// construction. The on/off delays and brightness setpoint here are
// startup defaults only; the live values are adjustable over the bus.
type Params struct {
	CardinalDirection float64
	RangeStart        float64
	RangeStop         float64

	SlatWidth   float64
	SlatSpacing float64

	MinChangeTracking float64

	SwitchOnDelay  time.Duration
	SwitchOffDelay time.Duration

	BrightnessSetpoint float64

	TickInterval    time.Duration
	SearchTolerance float64
}

// NewParams validates a device configuration and fills defaults.
func NewParams(cfg config.ShadingConfig) (Params, error) {
	if cfg.CardinalDirection < 0 || cfg.CardinalDirection >= 360 {
		return Params{}, fmt.Errorf("%w: cardinal_direction %.1f outside [0, 360)", ErrInvalidParams, cfg.CardinalDirection)
	}
	if cfg.RangeStart < 0 || cfg.RangeStop < 0 {
		return Params{}, fmt.Errorf("%w: range offsets must be non-negative", ErrInvalidParams)
	}
	if cfg.SlatWidth <= 0 || cfg.SlatSpacing <= 0 {
		return Params{}, fmt.Errorf("%w: slat geometry must be positive (width %.1f, spacing %.1f)", ErrInvalidParams, cfg.SlatWidth, cfg.SlatSpacing)
	}

	p := Params{
		CardinalDirection:  cfg.CardinalDirection,
		RangeStart:         cfg.RangeStart,
		RangeStop:          cfg.RangeStop,
		SlatWidth:          cfg.SlatWidth,
		SlatSpacing:        cfg.SlatSpacing,
		MinChangeTracking:  cfg.MinChangeTracking,
		SwitchOnDelay:      time.Duration(cfg.SwitchOnDelay) * time.Second,
		SwitchOffDelay:     time.Duration(cfg.SwitchOffDelay) * time.Second,
		BrightnessSetpoint: cfg.BrightnessSetpoint,
		TickInterval:       time.Duration(cfg.TickInterval) * time.Second,
		SearchTolerance:    cfg.SearchTolerance,
	}

	if p.MinChangeTracking <= 0 {
		p.MinChangeTracking = defaultMinChangeTracking
	}
	if p.SwitchOnDelay <= 0 {
		p.SwitchOnDelay = defaultSwitchOnDelay
	}
	if p.SwitchOffDelay <= 0 {
		p.SwitchOffDelay = defaultSwitchOffDelay
	}
	if p.BrightnessSetpoint <= 0 {
		p.BrightnessSetpoint = defaultBrightnessSetpoint
	}
	if p.TickInterval <= 0 {
		p.TickInterval = defaultTickInterval
	}

	return p, nil
}
