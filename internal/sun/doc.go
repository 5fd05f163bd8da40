// Package sun provides sun geometry and the sun-in-range window search.
//
// Geometry (elevation, azimuth, dawn, dusk) is a pure function of
// location and time, delegated to the suncalc library. On top of it,
// Window implements the two-phase coarse/fine azimuth-crossing search
// that determines when the sun enters and leaves a facade's configured
// cardinal window, with memoization so the expensive search runs at
// most once per day per device.
package sun
