package bus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/mqtt"
)

// mockMQTTClient records publishes and lets tests simulate inbound
// messages on subscribed topics.
type mockMQTTClient struct {
	mu           sync.Mutex
	published    []publishedMessage
	handlers     map[string]mqtt.MessageHandler
	publishErr   error
	subscribeErr error
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func newMockMQTTClient() *mockMQTTClient {
	return &mockMQTTClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, publishedMessage{topic, append([]byte{}, payload...), qos, retained})
	return nil
}

func (m *mockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.handlers[topic] = handler
	return nil
}

// simulateMessage delivers a payload as if the broker sent it.
func (m *mockMQTTClient) simulateMessage(t *testing.T, topic string, payload []byte) {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no handler subscribed on %s", topic)
	}
	if err := handler(topic, payload); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func (m *mockMQTTClient) getPublished() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMessage{}, m.published...)
}

func TestControlEndpointRequestReply(t *testing.T) {
	client := newMockMQTTClient()
	e := NewControlEndpoint(client, "backplate-01", 1)

	if err := e.Bind(); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	client.simulateMessage(t, mqtt.ControlTopic("backplate-01"), []byte(`{"set_wire":[]}`))

	select {
	case req := <-e.Requests():
		if string(req.Payload) != `{"set_wire":[]}` {
			t.Errorf("payload = %s", req.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for request")
	}

	if err := e.Reply([]byte(`{"set_wire_success":[]}`)); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	published := client.getPublished()
	if len(published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(published))
	}
	if published[0].topic != mqtt.ReplyTopic("backplate-01") {
		t.Errorf("topic = %s", published[0].topic)
	}
}

func TestControlEndpointReplyBeforeBind(t *testing.T) {
	e := NewControlEndpoint(newMockMQTTClient(), "backplate-01", 1)
	if err := e.Reply([]byte("{}")); !errors.Is(err, ErrNotBound) {
		t.Errorf("Reply() error = %v, want ErrNotBound", err)
	}
}

func TestControlEndpointDoubleBind(t *testing.T) {
	e := NewControlEndpoint(newMockMQTTClient(), "backplate-01", 1)
	if err := e.Bind(); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if err := e.Bind(); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("second Bind() error = %v, want ErrAlreadyBound", err)
	}
}

func TestControlEndpointBindFailure(t *testing.T) {
	client := newMockMQTTClient()
	client.subscribeErr = mqtt.ErrNotConnected
	e := NewControlEndpoint(client, "backplate-01", 1)

	if err := e.Bind(); err == nil {
		t.Fatal("Bind() error = nil, want error")
	}

	// A failed bind leaves the endpoint unbound so a retry is possible.
	client.subscribeErr = nil
	if err := e.Bind(); err != nil {
		t.Errorf("retry Bind() error = %v", err)
	}
}

func TestEventEndpointPublishBeforeBind(t *testing.T) {
	e := NewEventEndpoint(newMockMQTTClient(), "backplate-01", 1)

	if e.Bound() {
		t.Error("Bound() = true before Bind")
	}
	if err := e.Publish([]byte("{}")); !errors.Is(err, ErrNotBound) {
		t.Errorf("Publish() error = %v, want ErrNotBound", err)
	}
}

func TestEventEndpointPublishAfterBind(t *testing.T) {
	client := newMockMQTTClient()
	e := NewEventEndpoint(client, "backplate-01", 1)

	if err := e.Bind(); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if !e.Bound() {
		t.Error("Bound() = false after Bind")
	}

	if err := e.Publish([]byte(`{"weather":{"temperature":200,"humidity":50}}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := client.getPublished()
	if len(published) != 1 {
		t.Fatalf("published = %d messages, want 1", len(published))
	}
	if published[0].topic != mqtt.EventTopic("backplate-01") {
		t.Errorf("topic = %s", published[0].topic)
	}
}

func TestEventEndpointNotices(t *testing.T) {
	client := newMockMQTTClient()
	e := NewEventEndpoint(client, "backplate-01", 1)

	if err := e.Bind(); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	presence := mqtt.PresenceTopic("backplate-01")
	tests := []struct {
		name    string
		payload []byte
		want    bool
	}{
		{"subscribe", []byte{0x01}, true},
		{"subscribe with topic suffix", []byte{0x01, 't', 'x'}, true},
		{"unsubscribe", []byte{0x00}, false},
		{"empty payload", []byte{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client.simulateMessage(t, presence, tt.payload)
			select {
			case notice := <-e.Notices():
				if notice.Subscribe != tt.want {
					t.Errorf("Subscribe = %v, want %v", notice.Subscribe, tt.want)
				}
			case <-time.After(time.Second):
				t.Fatal("timed out waiting for notice")
			}
		})
	}
}
