package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-backplate/internal/backplate"
)

// Health status values published on the health topic.
const (
	HealthOnline   = "online"
	HealthStarting = "starting"
	HealthDegraded = "degraded"
	HealthOffline  = "offline"
)

// HealthPublisher is the broker surface the reporter publishes through.
// Satisfied by *mqtt.Client.
type HealthPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// StatsSource exposes session counters. Satisfied by *backplate.Session.
type StatsSource interface {
	Stats() backplate.Stats
}

// Readiness reports whether the gateway has passed its reset gate.
// Satisfied by *Gateway.
type Readiness interface {
	Ready() bool
}

// HealthStatus is the retained JSON body on the health topic.
type HealthStatus struct {
	Status        string    `json:"status"`
	Ready         bool      `json:"ready"`
	Connected     bool      `json:"connected"`
	FramesRx      uint64    `json:"frames_rx"`
	FramesTx      uint64    `json:"frames_tx"`
	Errors        uint64    `json:"errors"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// OfflinePayload is the retained body for the broker's last-will
// message and for the final publish on graceful shutdown.
func OfflinePayload() []byte {
	payload, _ := json.Marshal(HealthStatus{Status: HealthOffline})
	return payload
}

// HealthReporter periodically publishes a retained health message so
// observers can tell a quiet gateway from a dead one. The broker's
// last-will replaces the message with offline if the process vanishes.
type HealthReporter struct {
	publisher HealthPublisher
	stats     StatsSource
	readiness Readiness
	topic     string
	qos       byte
	interval  time.Duration
	logger    Logger

	started  time.Time
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewHealthReporter creates a stopped reporter; call Start to begin.
func NewHealthReporter(publisher HealthPublisher, stats StatsSource, readiness Readiness, topic string, qos byte, interval time.Duration, logger Logger) *HealthReporter {
	return &HealthReporter{
		publisher: publisher,
		stats:     stats,
		readiness: readiness,
		topic:     topic,
		qos:       qos,
		interval:  interval,
		logger:    logger,
		started:   time.Now(),
		done:      make(chan struct{}),
	}
}

// Start launches the reporting goroutine. An initial report goes out
// immediately so the retained message exists before the first tick.
func (h *HealthReporter) Start() {
	h.wg.Add(1)
	go h.run()
}

func (h *HealthReporter) run() {
	defer h.wg.Done()

	h.report()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.report()
		case <-h.done:
			return
		}
	}
}

// report publishes one retained health message.
func (h *HealthReporter) report() {
	stats := h.stats.Stats()
	ready := h.readiness.Ready()

	status := HealthOnline
	switch {
	case !stats.Connected:
		status = HealthDegraded
	case !ready:
		status = HealthStarting
	}

	payload, err := json.Marshal(HealthStatus{
		Status:        status,
		Ready:         ready,
		Connected:     stats.Connected,
		FramesRx:      stats.FramesRx,
		FramesTx:      stats.FramesTx,
		Errors:        stats.Errors,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		h.logger.Error("encoding health status failed", "error", err)
		return
	}

	if err := h.publisher.Publish(h.topic, payload, h.qos, true); err != nil {
		h.logger.Warn("health publish failed", "error", err)
	}
}

// Stop halts the reporter and publishes a final offline message so a
// graceful shutdown does not leave a stale online status retained.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		if err := h.publisher.Publish(h.topic, OfflinePayload(), h.qos, true); err != nil {
			h.logger.Warn("final health publish failed", "error", err)
		}
	})
}
