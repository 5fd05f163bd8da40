package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordBrightness stores one outdoor brightness reading, in lux.
func (c *Client) RecordBrightness(device string, lux float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		"brightness",
		map[string]string{"device": device},
		map[string]interface{}{"lux": lux},
		time.Now(),
	))
}

// RecordActuator stores the height and slat positions actually written
// to the bus, in percent.
func (c *Client) RecordActuator(device string, height, slat float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		"actuator_position",
		map[string]string{"device": device},
		map[string]interface{}{
			"height": height,
			"slat":   slat,
		},
		time.Now(),
	))
}

// RecordSunPosition stores the sun geometry a shading decision was
// based on, in degrees.
func (c *Client) RecordSunPosition(device string, elevation, azimuth float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		"sun_position",
		map[string]string{"device": device},
		map[string]interface{}{
			"elevation": elevation,
			"azimuth":   azimuth,
		},
		time.Now(),
	))
}
