package backplate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.bug.st/serial"
)

// Logger is the minimal logging surface the session needs.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Callbacks holds the handlers a session invokes while dispatching
// inbound frames. Nil handlers are skipped.
//
// All callbacks run synchronously on the goroutine that calls Dispatch
// (or ControlWire for OnWireChanged), never on the reader goroutine.
type Callbacks struct {
	// OnLog receives diagnostic text lines from the device firmware.
	OnLog func(line string)

	// OnWeather receives a temperature and humidity sample. Values are
	// the device's raw unsigned integers.
	OnWeather func(temperature, humidity uint16)

	// OnPowerStatus receives battery charging state and voltage in
	// millivolts.
	OnPowerStatus func(charging bool, voltageMV uint16)

	// OnResetComplete fires when the device reports FET presence after
	// a reset, signalling the control plane is usable. The argument is
	// a bitmask of physically present wires, bit i for wire index i.
	OnResetComplete func(presence byte)

	// OnWireChanged fires when a wire's known state transitions, either
	// from a successful control write or a device report.
	OnWireChanged func(wire Wire, connected bool)
}

// Stats is a point-in-time snapshot of session counters.
type Stats struct {
	FramesRx  uint64
	FramesTx  uint64
	Errors    uint64
	Connected bool
}

// Session manages one serial conversation with the backplate.
//
// A background goroutine decodes frames from the port onto the Frames
// channel; the owner drains that channel and calls Dispatch from its
// own event loop, so all callbacks and state updates are confined to
// one goroutine.
type Session struct {
	port io.ReadWriteCloser
	cb   Callbacks

	frames chan Frame

	writeMu sync.Mutex

	stateMu    sync.Mutex
	assertions [WireCount]Tristate

	framesRx atomic.Uint64
	framesTx atomic.Uint64
	errCount atomic.Uint64

	connected atomic.Bool

	logger   Logger
	loggerMu sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

// powerFlagOnBattery is set in the power status flags byte when the
// device is running from battery rather than charging.
const powerFlagOnBattery = 0x40

// Open opens the backplate serial port at 8N1.
func Open(path string, baudRate int) (io.ReadWriteCloser, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", path, err)
	}
	return port, nil
}

// NewSession wraps an open port and starts the reader goroutine.
func NewSession(port io.ReadWriteCloser) *Session {
	s := &Session{
		port:   port,
		frames: make(chan Frame, 16),
		done:   make(chan struct{}),
	}
	s.connected.Store(true)
	go s.readLoop()
	return s
}

// SetCallbacks installs the dispatch handlers. Call before draining
// Frames; the session does not lock around the callback struct.
func (s *Session) SetCallbacks(cb Callbacks) {
	s.cb = cb
}

// SetLogger sets a logger for decode warnings and transport errors.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// Frames returns the inbound frame channel. The channel is closed when
// the transport fails or the session is closed; a closed channel means
// the device link is gone for good.
func (s *Session) Frames() <-chan Frame {
	return s.frames
}

// readLoop decodes frames from the port until the transport fails.
func (s *Session) readLoop() {
	defer close(s.frames)

	dec := NewDecoder(s.port)
	for {
		frame, err := dec.Next()
		if err != nil {
			if errors.Is(err, ErrBadFrame) || errors.Is(err, ErrFrameTooLarge) {
				s.errCount.Add(1)
				if logger := s.getLogger(); logger != nil {
					logger.Warn("discarding corrupt frame", "error", err)
				}
				continue
			}
			// Transport failure or port closed.
			s.connected.Store(false)
			select {
			case <-s.done:
				// Expected during Close.
			default:
				s.errCount.Add(1)
				if logger := s.getLogger(); logger != nil {
					logger.Error("serial read failed", "error", err)
				}
			}
			return
		}

		s.framesRx.Add(1)
		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}

// Dispatch decodes one inbound frame and invokes the matching callback.
//
// Unknown message types are logged and skipped. A malformed payload
// returns ErrShortPayload; the caller decides whether to continue.
func (s *Session) Dispatch(f Frame) error {
	switch f.Type {
	case MsgLog:
		if s.cb.OnLog != nil {
			s.cb.OnLog(string(f.Payload))
		}

	case MsgWeather:
		if len(f.Payload) < 4 {
			s.errCount.Add(1)
			return fmt.Errorf("%w: weather frame %d bytes", ErrShortPayload, len(f.Payload))
		}
		if s.cb.OnWeather != nil {
			temperature := binary.BigEndian.Uint16(f.Payload[0:2])
			humidity := binary.BigEndian.Uint16(f.Payload[2:4])
			s.cb.OnWeather(temperature, humidity)
		}

	case MsgPowerStatus:
		if len(f.Payload) < 3 {
			s.errCount.Add(1)
			return fmt.Errorf("%w: power frame %d bytes", ErrShortPayload, len(f.Payload))
		}
		if s.cb.OnPowerStatus != nil {
			charging := f.Payload[0]&powerFlagOnBattery == 0
			voltageMV := binary.BigEndian.Uint16(f.Payload[1:3])
			s.cb.OnPowerStatus(charging, voltageMV)
		}

	case MsgFetPresence:
		if len(f.Payload) < 1 {
			s.errCount.Add(1)
			return fmt.Errorf("%w: fet presence frame empty", ErrShortPayload)
		}
		if s.cb.OnResetComplete != nil {
			s.cb.OnResetComplete(f.Payload[0])
		}

	case MsgWireAsserted:
		if len(f.Payload) < 2 {
			s.errCount.Add(1)
			return fmt.Errorf("%w: wire frame %d bytes", ErrShortPayload, len(f.Payload))
		}
		wire := Wire(f.Payload[0])
		if !wire.Valid() {
			s.errCount.Add(1)
			return fmt.Errorf("%w: index %d", ErrInvalidWire, f.Payload[0])
		}
		s.recordAssertion(wire, f.Payload[1] != 0)

	default:
		if logger := s.getLogger(); logger != nil {
			logger.Debug("ignoring unknown frame type", "type", fmt.Sprintf("%#04x", uint16(f.Type)))
		}
	}

	return nil
}

// recordAssertion updates the wire table and fires OnWireChanged on a
// real transition.
func (s *Session) recordAssertion(wire Wire, connected bool) {
	next := Deasserted
	if connected {
		next = Asserted
	}

	s.stateMu.Lock()
	changed := s.assertions[wire] != next
	s.assertions[wire] = next
	s.stateMu.Unlock()

	if changed && s.cb.OnWireChanged != nil {
		s.cb.OnWireChanged(wire, connected)
	}
}

// SendReset asks the device to reset its control plane. FET presence
// is reported back asynchronously via OnResetComplete.
func (s *Session) SendReset() error {
	return s.send(Frame{Type: MsgReset})
}

// RequestPeriodic asks the device for a fresh telemetry sweep. The
// device answers with weather and power status frames.
func (s *Session) RequestPeriodic() error {
	return s.send(Frame{Type: MsgPeriodicRequest})
}

// ControlWire connects or disconnects one wire.
//
// On a successful write the wire table updates immediately and
// OnWireChanged fires synchronously if the state transitioned, so the
// caller observes the change before ControlWire returns.
func (s *Session) ControlWire(wire Wire, connect bool) error {
	if !wire.Valid() {
		return fmt.Errorf("%w: index %d", ErrInvalidWire, uint8(wire))
	}

	state := byte(0)
	if connect {
		state = 1
	}
	if err := s.send(Frame{Type: MsgWireControl, Payload: []byte{byte(wire), state}}); err != nil {
		return err
	}

	s.recordAssertion(wire, connect)
	return nil
}

// Assertions returns a copy of the current wire state table.
func (s *Session) Assertions() [WireCount]Tristate {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.assertions
}

// send encodes and writes one frame, serialising writers.
func (s *Session) send(f Frame) error {
	if !s.connected.Load() {
		return ErrSessionClosed
	}

	data, err := EncodeFrame(f)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	_, err = s.port.Write(data)
	s.writeMu.Unlock()

	if err != nil {
		s.errCount.Add(1)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.framesTx.Add(1)
	return nil
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		FramesRx:  s.framesRx.Load(),
		FramesTx:  s.framesTx.Load(),
		Errors:    s.errCount.Load(),
		Connected: s.connected.Load(),
	}
}

// Close shuts the session down and closes the underlying port.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.connected.Store(false)
		err = s.port.Close()
	})
	return err
}
