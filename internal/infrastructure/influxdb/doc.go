// Package influxdb is the optional telemetry sink.
//
// When enabled, brightness readings, actuator positions, and the sun
// geometry behind each shading decision are written to InfluxDB as
// batched, non-blocking points. The daemon works identically without
// it; devices see a no-op recorder instead.
package influxdb
