package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-backplate/internal/backplate"
	"github.com/nerrad567/gray-logic-backplate/internal/bus"
)

// Logger is the minimal logging surface the gateway needs.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Device is the backplate session surface the gateway drives.
// Satisfied by *backplate.Session; narrowed for testing.
type Device interface {
	SetCallbacks(backplate.Callbacks)
	Frames() <-chan backplate.Frame
	Dispatch(backplate.Frame) error
	RequestPeriodic() error
	ControlWire(wire backplate.Wire, connect bool) error
}

// ControlChannel carries control requests in and replies out.
type ControlChannel interface {
	Requests() <-chan bus.Request
	Reply(payload []byte) error
}

// EventChannel fans events out to observers once bound.
type EventChannel interface {
	Bind() error
	Bound() bool
	Notices() <-chan bus.Notice
	Publish(payload []byte) error
}

// Recorder sinks telemetry samples into a time-series store.
type Recorder interface {
	WriteWeather(deviceID string, temperature, humidity uint16, ts time.Time)
	WriteBattery(deviceID string, charging bool, voltageMV uint16, ts time.Time)
	WriteWireChange(deviceID, wire string, connected bool, ts time.Time)
}

// Journal appends published events to a local audit trail.
type Journal interface {
	RecordEvent(kind string, payload []byte) error
}

// Options configures a Gateway. Device, Control, Events, and Logger
// are required; Recorder and Journal are optional sinks.
type Options struct {
	Device           Device
	Control          ControlChannel
	Events           EventChannel
	Logger           Logger
	DeviceID         string
	PeriodicInterval time.Duration

	Recorder Recorder
	Journal  Journal
}

// Gateway bridges one backplate device onto the message bus.
//
// Everything runs on the single goroutine inside Run: device frames,
// control requests, observer notices, and the telemetry timer are
// multiplexed there, and all session callbacks fire synchronously
// within Dispatch or ControlWire on that same goroutine. That single
// thread of execution is what makes the request/reply ordering and the
// publish-after-ready guarantee hold without locks.
type Gateway struct {
	device  Device
	control ControlChannel
	events  EventChannel
	logger  Logger

	deviceID string
	sched    *Scheduler
	state    *DeviceState

	recorder Recorder
	journal  Journal

	// ready flips once, when the device reports reset complete.
	// Atomic only so the health reporter can read it from outside.
	ready atomic.Bool

	// fatal holds an error raised inside a session callback. Callbacks
	// cannot return errors through Dispatch, so the loop checks this
	// slot after every dispatch.
	fatal error

	now func() time.Time
}

// New wires a Gateway and installs its device callbacks.
func New(opts Options) (*Gateway, error) {
	if opts.Device == nil || opts.Control == nil || opts.Events == nil {
		return nil, errors.New("gateway: device, control, and events are required")
	}
	if opts.Logger == nil {
		return nil, errors.New("gateway: logger is required")
	}
	if opts.PeriodicInterval <= 0 {
		return nil, errors.New("gateway: periodic interval must be positive")
	}

	g := &Gateway{
		device:   opts.Device,
		control:  opts.Control,
		events:   opts.Events,
		logger:   opts.Logger,
		deviceID: opts.DeviceID,
		sched:    NewScheduler(opts.PeriodicInterval),
		state:    NewDeviceState(),
		recorder: opts.Recorder,
		journal:  opts.Journal,
		now:      time.Now,
	}

	g.device.SetCallbacks(backplate.Callbacks{
		OnLog:           g.onLog,
		OnWeather:       g.onWeather,
		OnPowerStatus:   g.onPowerStatus,
		OnResetComplete: g.onResetComplete,
		OnWireChanged:   g.onWireChanged,
	})

	return g, nil
}

// Ready reports whether the device has completed its reset and the
// event channel is open. Safe to call from any goroutine.
func (g *Gateway) Ready() bool {
	return g.ready.Load()
}

// Run drives the event loop until the context is cancelled or a fatal
// error occurs. A cancelled context is a graceful stop and returns nil.
func (g *Gateway) Run(ctx context.Context) error {
	defer g.sched.Stop()

	g.logger.Info("gateway event loop started", "device_id", g.deviceID)

	for {
		if err := g.runOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				g.logger.Info("gateway event loop stopped")
				return nil
			}
			return err
		}
	}
}

// runOnce waits for work, sweeps the other sources without blocking,
// then processes everything collected in fixed priority order: the
// telemetry timer, then device frames, then control requests, then
// observer notices. The sweep plus fixed ordering keeps the priority
// deterministic even though Go's select picks ready cases at random.
func (g *Gateway) runOnce(ctx context.Context) error {
	var (
		pf *backplate.Frame
		pr *bus.Request
		pn *bus.Notice
	)

	select {
	case <-ctx.Done():
		return ctx.Err()

	case frame, ok := <-g.device.Frames():
		if !ok {
			return ErrDeviceClosed
		}
		pf = &frame

	case req := <-g.control.Requests():
		pr = &req

	case notice := <-g.events.Notices():
		pn = &notice

	case <-g.sched.C():
		// Handled below through Due; a wake that raced a Rearm is
		// simply not due and nothing is sent.
	}

	if pf == nil {
		select {
		case frame, ok := <-g.device.Frames():
			if !ok {
				return ErrDeviceClosed
			}
			pf = &frame
		default:
		}
	}
	if pr == nil {
		select {
		case req := <-g.control.Requests():
			pr = &req
		default:
		}
	}
	if pn == nil {
		select {
		case notice := <-g.events.Notices():
			pn = &notice
		default:
		}
	}

	if g.sched.Due() {
		if err := g.requestPeriodic(); err != nil {
			return err
		}
	}

	if pf != nil {
		if err := g.device.Dispatch(*pf); err != nil {
			// A malformed device frame costs one frame, not the session.
			g.logger.Warn("dropping undecodable device frame", "error", err)
		}
		if g.fatal != nil {
			return g.fatal
		}
	}

	if pr != nil {
		if err := g.handleControl(*pr); err != nil {
			return err
		}
	}

	if pn != nil {
		g.handleNotice(*pn)
	}

	return nil
}

// requestPeriodic asks the device for a telemetry sweep and re-arms
// the scheduler. A serial write failure here is unrecoverable.
func (g *Gateway) requestPeriodic() error {
	if err := g.device.RequestPeriodic(); err != nil {
		return fmt.Errorf("requesting telemetry refresh: %w", err)
	}
	g.sched.Rearm()
	g.logger.Debug("telemetry refresh requested")
	return nil
}

// handleControl executes one control request and replies exactly once.
//
// A request that cannot be decoded is fatal: skipping a reply would
// leave every later requester reading the answer to someone else's
// question. Individual wire failures are not fatal; they come back as
// false in the outcome.
func (g *Gateway) handleControl(req bus.Request) error {
	var cmd ControlCommand
	if err := json.Unmarshal(req.Payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	results := make([]bool, len(cmd.SetWire))
	for i, sw := range cmd.SetWire {
		wire, err := backplate.ParseWire(sw.Wire)
		if err != nil {
			g.logger.Warn("control request names unknown wire", "wire", sw.Wire)
			continue
		}
		if err := g.device.ControlWire(wire, sw.Connect); err != nil {
			g.logger.Warn("wire control failed", "wire", sw.Wire, "connect", sw.Connect, "error", err)
			continue
		}
		results[i] = true
	}

	// ControlWire fires OnWireChanged synchronously, so any publish
	// failure it raised is visible here.
	if g.fatal != nil {
		return g.fatal
	}

	payload, err := json.Marshal(ControlOutcome{SetWireSuccess: results})
	if err != nil {
		return fmt.Errorf("encoding control outcome: %w", err)
	}
	if err := g.control.Reply(payload); err != nil {
		// The broker connection will recover on its own; the requester
		// times out. Crashing here would also lose the wire changes
		// that already took effect.
		g.logger.Error("control reply failed", "error", err)
	}
	return nil
}

// handleNotice reacts to observers arriving on the event channel. A
// new observer gets a full state snapshot; because the event channel
// is a fan-out, every current observer sees the snapshot too.
func (g *Gateway) handleNotice(n bus.Notice) {
	if !n.Subscribe {
		g.logger.Debug("observer left event channel")
		return
	}
	g.logger.Debug("observer joined event channel, sending snapshot")
	g.publishEvent(g.state.Snapshot(), "snapshot")
}

// publishEvent marshals and fans out one event. Before the event
// channel is bound nothing is published; early telemetry only warms
// the snapshot state. Publish failures are logged, not fatal, since
// the broker link recovers on its own.
func (g *Gateway) publishEvent(msg EventMessage, kind string) {
	payload, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("encoding event failed", "kind", kind, "error", err)
		return
	}

	if g.journal != nil {
		if err := g.journal.RecordEvent(kind, payload); err != nil {
			g.logger.Warn("journal write failed", "kind", kind, "error", err)
		}
	}

	if !g.events.Bound() {
		g.logger.Debug("event channel not yet open, skipping publish", "kind", kind)
		return
	}
	if err := g.events.Publish(payload); err != nil {
		g.logger.Error("event publish failed", "kind", kind, "error", err)
	}
}

// onLog forwards a device diagnostic line to the gateway log.
func (g *Gateway) onLog(line string) {
	g.logger.Info("backplate log", "line", line)
}

// onWeather handles a weather sample: cache, log, record, publish.
func (g *Gateway) onWeather(temperature, humidity uint16) {
	g.logger.Debug("weather sample",
		"temperature", temperature,
		"humidity", humidity,
		"fahrenheit_milli", fahrenheitMilli(temperature),
	)

	g.state.SetWeather(temperature, humidity)
	if g.recorder != nil {
		g.recorder.WriteWeather(g.deviceID, temperature, humidity, g.now())
	}
	g.publishEvent(weatherEvent(temperature, humidity), "weather")
}

// onPowerStatus handles a battery report.
func (g *Gateway) onPowerStatus(charging bool, voltageMV uint16) {
	g.logger.Debug("power status", "charging", charging, "voltage_mv", voltageMV)

	g.state.SetBattery(charging, voltageMV)
	if g.recorder != nil {
		g.recorder.WriteBattery(g.deviceID, charging, voltageMV, g.now())
	}
	g.publishEvent(batteryEvent(charging, voltageMV), "battery")
}

// onResetComplete opens the event channel and starts the telemetry
// cycle. The presence mask is logged but not otherwise used; gating is
// the point. The gate is one-shot: a device that resets mid-session
// gets its report logged and ignored rather than rebinding anything.
func (g *Gateway) onResetComplete(presence byte) {
	if g.ready.Load() {
		g.logger.Warn("duplicate reset-complete report ignored", "presence_mask", fmt.Sprintf("%#02x", presence))
		return
	}

	g.logger.Info("backplate reset complete", "presence_mask", fmt.Sprintf("%#02x", presence))

	if err := g.events.Bind(); err != nil {
		g.fatal = fmt.Errorf("opening event channel: %w", err)
		return
	}

	if err := g.requestPeriodic(); err != nil {
		g.fatal = err
		return
	}

	g.ready.Store(true)
}

// onWireChanged handles a wire transition from either a control write
// or a device report.
func (g *Gateway) onWireChanged(wire backplate.Wire, connected bool) {
	g.logger.Info("wire changed", "wire", wire.String(), "connected", connected)

	g.state.SetWire(wire, connected)
	if g.recorder != nil {
		g.recorder.WriteWireChange(g.deviceID, wire.String(), connected, g.now())
	}
	g.publishEvent(wireChangeEvent(wire, connected), "wire_change")
}
