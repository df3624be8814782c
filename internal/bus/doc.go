// Package bus maps the gateway's two message-bus surfaces onto MQTT
// topics.
//
// The control surface is a strict request/reply pair: requests arrive
// on the control topic, replies go out on the reply topic, and the two
// correlate purely by ordering. The event surface is a fan-out channel
// plus a presence topic that announces observers arriving and leaving,
// which the gateway uses to push state snapshots.
package bus
