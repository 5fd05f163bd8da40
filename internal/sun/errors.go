package sun

import "errors"

// ErrNoCrossing is returned when the sun's azimuth never comes within
// tolerance of the target during the scanned day. Callers keep their
// previous window and retry later.
var ErrNoCrossing = errors.New("sun: target azimuth not crossed within scan window")
