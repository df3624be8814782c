package gateway

import "errors"

// Sentinel errors for the gateway event loop.
var (
	// ErrDeviceClosed indicates the serial link to the backplate died.
	// The gateway cannot recover in place; the process must restart.
	ErrDeviceClosed = errors.New("gateway: device link closed")

	// ErrBadRequest indicates a control request that could not be
	// decoded. An undecodable request would desynchronise the
	// request/reply ordering, so it is fatal.
	ErrBadRequest = errors.New("gateway: undecodable control request")
)
