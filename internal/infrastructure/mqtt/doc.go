// Package mqtt provides the MQTT client wrapper for the backplate gateway.
//
// It wraps eclipse/paho.mqtt.golang with:
//   - Connection management and automatic reconnection
//   - Subscription tracking with restoration after reconnect
//   - Panic recovery in message handlers
//   - Last Will and Testament support for offline detection
//   - Topic helpers for the gateway's flat topic scheme
//
// # Topic Scheme
//
// All topics follow graylogic/{category}/backplate/{device_id}:
//
//	graylogic/event/backplate/backplate-01     fan-out telemetry events
//	graylogic/control/backplate/backplate-01   control requests (inbound)
//	graylogic/reply/backplate/backplate-01     control replies (outbound)
//	graylogic/presence/backplate/backplate-01  observer subscribe/unsubscribe notices
//	graylogic/health/backplate/backplate-01    gateway health status (retained)
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package mqtt
