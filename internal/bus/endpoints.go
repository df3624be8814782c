package bus

import (
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/mqtt"
)

// MQTTClient is the broker surface the endpoints need.
// Satisfied by *mqtt.Client; narrowed for testing.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Request is one inbound control payload awaiting a reply.
//
// The control channel carries no correlation identifiers. Requests are
// answered strictly in arrival order: the gateway must publish exactly
// one reply per request before taking the next one.
type Request struct {
	Payload []byte
}

// Notice is an observer arriving on or leaving the event channel.
//
// The payload convention follows subscription notification framing: an
// empty payload or a zero first byte means an observer left, anything
// else means one arrived.
type Notice struct {
	Subscribe bool
}

// ControlEndpoint receives control requests and publishes replies.
//
// It binds early, before the device is ready, so requests queue at the
// broker rather than being lost during startup.
type ControlEndpoint struct {
	client   MQTTClient
	deviceID string
	qos      byte

	requests chan Request
	bound    atomic.Bool
}

// NewControlEndpoint creates an unbound control endpoint.
func NewControlEndpoint(client MQTTClient, deviceID string, qos byte) *ControlEndpoint {
	return &ControlEndpoint{
		client:   client,
		deviceID: deviceID,
		qos:      qos,
		requests: make(chan Request, 16),
	}
}

// Bind subscribes to the control topic and starts queuing requests.
func (e *ControlEndpoint) Bind() error {
	if !e.bound.CompareAndSwap(false, true) {
		return ErrAlreadyBound
	}

	topic := mqtt.ControlTopic(e.deviceID)
	err := e.client.Subscribe(topic, e.qos, func(_ string, payload []byte) error {
		body := make([]byte, len(payload))
		copy(body, payload)
		e.requests <- Request{Payload: body}
		return nil
	})
	if err != nil {
		e.bound.Store(false)
		return fmt.Errorf("binding control endpoint: %w", err)
	}
	return nil
}

// Requests returns the inbound request channel.
func (e *ControlEndpoint) Requests() <-chan Request {
	return e.requests
}

// Reply publishes one reply on the reply topic. Callers must reply
// exactly once per request, in order.
func (e *ControlEndpoint) Reply(payload []byte) error {
	if !e.bound.Load() {
		return ErrNotBound
	}
	if err := e.client.Publish(mqtt.ReplyTopic(e.deviceID), payload, e.qos, false); err != nil {
		return fmt.Errorf("publishing reply: %w", err)
	}
	return nil
}

// EventEndpoint fans telemetry events out to observers and watches the
// presence topic for observers arriving.
//
// It stays unbound until the device completes its reset so observers
// never see events from a control plane that is not ready. Publish and
// Reply-style calls before Bind return ErrNotBound.
type EventEndpoint struct {
	client   MQTTClient
	deviceID string
	qos      byte

	notices chan Notice
	bound   atomic.Bool
}

// NewEventEndpoint creates an unbound event endpoint.
func NewEventEndpoint(client MQTTClient, deviceID string, qos byte) *EventEndpoint {
	return &EventEndpoint{
		client:   client,
		deviceID: deviceID,
		qos:      qos,
		notices:  make(chan Notice, 16),
	}
}

// Bind opens the event channel: it subscribes to the presence topic and
// allows publishing. Call only after the device reports reset complete.
func (e *EventEndpoint) Bind() error {
	if !e.bound.CompareAndSwap(false, true) {
		return ErrAlreadyBound
	}

	topic := mqtt.PresenceTopic(e.deviceID)
	err := e.client.Subscribe(topic, e.qos, func(_ string, payload []byte) error {
		e.notices <- Notice{Subscribe: len(payload) > 0 && payload[0] != 0}
		return nil
	})
	if err != nil {
		e.bound.Store(false)
		return fmt.Errorf("binding event endpoint: %w", err)
	}
	return nil
}

// Bound reports whether the endpoint has been opened for publishing.
func (e *EventEndpoint) Bound() bool {
	return e.bound.Load()
}

// Notices returns the observer arrival/departure channel.
func (e *EventEndpoint) Notices() <-chan Notice {
	return e.notices
}

// Publish fans one event payload out to every observer.
func (e *EventEndpoint) Publish(payload []byte) error {
	if !e.bound.Load() {
		return ErrNotBound
	}
	if err := e.client.Publish(mqtt.EventTopic(e.deviceID), payload, e.qos, false); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}
