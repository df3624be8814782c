package backplate

import "errors"

// Sentinel errors for backplate session and frame operations.
var (
	// ErrInvalidWire indicates an unknown wire name or out-of-range index.
	ErrInvalidWire = errors.New("backplate: invalid wire")

	// ErrBadFrame indicates a frame failed CRC or structural validation.
	// The decoder resynchronises on the next flag byte after this error.
	ErrBadFrame = errors.New("backplate: bad frame")

	// ErrFrameTooLarge indicates a frame exceeded the maximum payload size.
	ErrFrameTooLarge = errors.New("backplate: frame too large")

	// ErrShortPayload indicates a frame payload was smaller than its
	// message type requires.
	ErrShortPayload = errors.New("backplate: short payload")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("backplate: session closed")

	// ErrWriteFailed indicates a frame could not be written to the device.
	ErrWriteFailed = errors.New("backplate: write failed")
)
