package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// WriteWeather records a weather telemetry sample.
//
// Temperature and humidity are stored as the raw device integers so the
// dashboard layer decides how to scale them.
func (c *Client) WriteWeather(deviceID string, temperature, humidity uint16, ts time.Time) {
	point := influxdb2.NewPoint(
		"weather",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"temperature": int64(temperature),
			"humidity":    int64(humidity),
		},
		ts,
	)
	c.writeAPI.WritePoint(point)
}

// WriteBattery records a battery status sample.
func (c *Client) WriteBattery(deviceID string, charging bool, voltageMV uint16, ts time.Time) {
	point := influxdb2.NewPoint(
		"battery",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"charging":   charging,
			"voltage_mv": int64(voltageMV),
		},
		ts,
	)
	c.writeAPI.WritePoint(point)
}

// WriteWireChange records a control wire transition.
func (c *Client) WriteWireChange(deviceID, wire string, connected bool, ts time.Time) {
	point := influxdb2.NewPoint(
		"wire_change",
		map[string]string{
			"device_id": deviceID,
			"wire":      wire,
		},
		map[string]interface{}{
			"connected": connected,
		},
		ts,
	)
	c.writeAPI.WritePoint(point)
}
