package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
var (
	// ErrDisabled indicates InfluxDB recording is disabled in configuration.
	ErrDisabled = errors.New("influxdb: recording disabled")

	// ErrConnectionFailed indicates the initial connection or ping failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected indicates an operation was attempted on a closed client.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed indicates a point could not be written.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
