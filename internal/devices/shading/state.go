package shading

import (
	"encoding/json"
	"fmt"
	"time"
)

// stateSchemaVersion is bumped whenever stateRecord changes shape.
const stateSchemaVersion = 1

// stateRecord is the persisted form of the automaton. Every field that
// survives a restart is explicit here; an unknown schema version is an
// error and the caller falls back to defaults.
type stateRecord struct {
	SchemaVersion int `json:"schema_version"`

	Enabled   bool   `json:"enabled"`
	State     string `json:"state"`
	SunActive bool   `json:"sun_active"`

	Brightness float64 `json:"brightness"`
	Setpoint   float64 `json:"setpoint"`

	OnDelaySeconds  float64    `json:"on_delay_seconds"`
	OffDelaySeconds float64    `json:"off_delay_seconds"`
	OnPendingSince  *time.Time `json:"on_pending_since,omitempty"`
	OffPendingSince *time.Time `json:"off_pending_since,omitempty"`

	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowStop  *time.Time `json:"window_stop,omitempty"`

	LastHeight float64 `json:"last_height"`
	HeightSent bool    `json:"height_sent"`
	LastSlat   float64 `json:"last_slat"`
	SlatSent   bool    `json:"slat_sent"`
}

// StateSave serialises the automaton into a versioned record.
func (d *Device) StateSave() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := stateRecord{
		SchemaVersion:   stateSchemaVersion,
		Enabled:         d.enabled,
		State:           d.state.String(),
		SunActive:       d.sunActive,
		Brightness:      d.brightness,
		Setpoint:        d.setpoint,
		OnDelaySeconds:  d.onTimer.Delay().Seconds(),
		OffDelaySeconds: d.offTimer.Delay().Seconds(),
	}

	rec.OnPendingSince = timePtr(d.onTimer.PendingSince())
	rec.OffPendingSince = timePtr(d.offTimer.PendingSince())
	rec.WindowStart = timePtr(d.window.Start)
	rec.WindowStop = timePtr(d.window.Stop)

	rec.LastHeight, rec.HeightSent = d.actuator.LastHeight()
	rec.LastSlat, rec.SlatSent = d.actuator.LastSlat()

	blob, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("shading: encoding state: %w", err)
	}
	return blob, nil
}

// StateLoad restores a record written by StateSave. The automaton
// resumes in the exact mode it was in before shutdown, including armed
// debounce timers and the memoized sun window.
func (d *Device) StateLoad(blob []byte) error {
	var rec stateRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}
	if rec.SchemaVersion != stateSchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrStateVersion, rec.SchemaVersion, stateSchemaVersion)
	}

	state, err := stateFromString(rec.State)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.enabled = rec.Enabled
	d.state = state
	d.sunActive = rec.SunActive
	d.brightness = rec.Brightness
	d.setpoint = rec.Setpoint

	d.onTimer.SetDelay(time.Duration(rec.OnDelaySeconds * float64(time.Second)))
	d.offTimer.SetDelay(time.Duration(rec.OffDelaySeconds * float64(time.Second)))
	d.onTimer.Restore(timeVal(rec.OnPendingSince))
	d.offTimer.Restore(timeVal(rec.OffPendingSince))

	d.window.Start = timeVal(rec.WindowStart)
	d.window.Stop = timeVal(rec.WindowStop)

	d.actuator.Restore(rec.LastHeight, rec.HeightSent, rec.LastSlat, rec.SlatSent)
	return nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
