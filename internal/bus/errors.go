package bus

import "errors"

// Sentinel errors for endpoint operations.
var (
	// ErrNotBound indicates a publish was attempted before Bind.
	ErrNotBound = errors.New("bus: endpoint not bound")

	// ErrAlreadyBound indicates Bind was called twice.
	ErrAlreadyBound = errors.New("bus: endpoint already bound")
)
