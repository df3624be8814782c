// Package influxdb provides optional time-series recording of backplate
// telemetry.
//
// When enabled in configuration, weather samples, battery status, and
// wire transitions are written to an InfluxDB v2 bucket through the
// non-blocking batched write API. The recorder is strictly write-only:
// nothing in the gateway reads historical points back, and a failed or
// disabled recorder never affects event publishing.
package influxdb
