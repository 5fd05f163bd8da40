package shading

import "math"

// SlatAngle computes the slat position, in percent, that just blocks
// direct sun at the given solar elevation for a venetian blind with
// slats of the given width mounted at the given vertical spacing.
//
// Elevation is in degrees above the horizon; width and spacing share an
// arbitrary unit (typically millimetres). The model tilts the slat by
// the elevation complement plus the wedge a slat of finite width must
// add to cover the gap to the slat below:
//
//	alpha = π/2 − elevation
//	gamma = alpha + asin(spacing·sin(alpha) / width)
//
// Both the asin argument and the final angle saturate rather than
// error: geometrically impossible demands (spacing wider than the slat
// can cover at this elevation) produce a fully closed slat.
func SlatAngle(elevation, width, spacing float64) float64 {
	alpha := math.Pi/2 - elevation*math.Pi/180

	arg := (spacing / 2) * math.Sin(alpha) / (width / 2)
	if arg > 1 {
		arg = 1
	} else if arg < -1 {
		arg = -1
	}

	gamma := alpha + math.Asin(arg)
	if gamma < 0 {
		gamma = 0
	} else if gamma > math.Pi {
		gamma = math.Pi
	}

	return 100 / math.Pi * gamma
}
