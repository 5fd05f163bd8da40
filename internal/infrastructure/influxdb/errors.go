package influxdb

import "errors"

var (
	// ErrDisabled is returned when connecting while the config disables
	// InfluxDB.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the initial connection or
	// health check fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
