package mqtt

import "fmt"

// Topic layout for the backplate gateway, following the Gray Logic flat
// scheme: graylogic/{category}/backplate/{device_id}.
const (
	// TopicPrefix is the base for all gateway topics.
	TopicPrefix = "graylogic"

	// Protocol is the protocol segment used in all backplate topics.
	Protocol = "backplate"
)

// EventTopic returns the fan-out event topic for a gateway instance.
//
// Example: graylogic/event/backplate/backplate-01
func EventTopic(deviceID string) string {
	return fmt.Sprintf("%s/event/%s/%s", TopicPrefix, Protocol, deviceID)
}

// ControlTopic returns the control request topic for a gateway instance.
//
// Example: graylogic/control/backplate/backplate-01
func ControlTopic(deviceID string) string {
	return fmt.Sprintf("%s/control/%s/%s", TopicPrefix, Protocol, deviceID)
}

// ReplyTopic returns the control reply topic for a gateway instance.
// Replies correlate with requests by strict request-then-reply ordering;
// the control channel carries one outstanding request at a time.
//
// Example: graylogic/reply/backplate/backplate-01
func ReplyTopic(deviceID string) string {
	return fmt.Sprintf("%s/reply/%s/%s", TopicPrefix, Protocol, deviceID)
}

// PresenceTopic returns the subscription-notice topic for a gateway instance.
// Observers announce themselves here with a single-byte payload: non-zero
// first byte for subscribe, zero or empty for unsubscribe.
//
// Example: graylogic/presence/backplate/backplate-01
func PresenceTopic(deviceID string) string {
	return fmt.Sprintf("%s/presence/%s/%s", TopicPrefix, Protocol, deviceID)
}

// HealthTopic returns the health status topic for a gateway instance.
//
// Example: graylogic/health/backplate/backplate-01
func HealthTopic(deviceID string) string {
	return fmt.Sprintf("%s/health/%s/%s", TopicPrefix, Protocol, deviceID)
}
