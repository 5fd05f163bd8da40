package sun

import (
	"fmt"
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Location is the geographic and timezone context for sun geometry.
// It is created once from static configuration and immutable thereafter.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
	TZ        *time.Location
}

// NewLocation builds a Location, resolving the timezone name.
func NewLocation(name, timezone string, latitude, longitude float64) (Location, error) {
	tz, err := time.LoadLocation(timezone)
	if err != nil {
		return Location{}, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}
	return Location{
		Name:      name,
		Latitude:  latitude,
		Longitude: longitude,
		TZ:        tz,
	}, nil
}

// Position is the sun's place in the sky at one instant.
type Position struct {
	// Elevation is the angle above the horizon, in degrees.
	Elevation float64

	// Azimuth is the compass bearing, in degrees: 0 north, 90 east,
	// 180 south, 270 west.
	Azimuth float64
}

// SunPosition returns the sun's elevation and azimuth at t.
//
// suncalc reports the azimuth in radians measured from south (positive
// towards west); this converts to a 0-360 compass bearing.
func (l Location) SunPosition(t time.Time) Position {
	p := suncalc.GetPosition(t, l.Latitude, l.Longitude)

	azimuth := p.Azimuth*180/math.Pi + 180
	azimuth = math.Mod(azimuth+360, 360)

	return Position{
		Elevation: p.Altitude * 180 / math.Pi,
		Azimuth:   azimuth,
	}
}

// SunTimes returns dawn and dusk for the calendar day containing t.
func (l Location) SunTimes(t time.Time) (dawn, dusk time.Time) {
	times := suncalc.GetTimes(t.In(l.TZ), l.Latitude, l.Longitude)
	return times[suncalc.Dawn].Value.In(l.TZ), times[suncalc.Dusk].Value.In(l.TZ)
}
