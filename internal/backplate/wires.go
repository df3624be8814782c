package backplate

import "fmt"

// Wire identifies one of the backplate's controllable HVAC wires.
type Wire uint8

// The backplate exposes eight control wires. The ordering matches the
// device firmware's wire indices and must not be rearranged.
const (
	WireW1 Wire = iota
	WireW2
	WireY1
	WireY2
	WireG
	WireOB
	WireAUX
	WireE

	// WireCount is the number of control wires on the backplate.
	WireCount = 8
)

// wireNames maps wire indices to their lowercase JSON names.
var wireNames = [WireCount]string{
	"w1", "w2", "y1", "y2", "g", "ob", "aux", "e",
}

// String returns the lowercase wire name used on the message bus.
func (w Wire) String() string {
	if int(w) >= WireCount {
		return fmt.Sprintf("wire(%d)", uint8(w))
	}
	return wireNames[w]
}

// Valid reports whether w is a known wire index.
func (w Wire) Valid() bool {
	return int(w) < WireCount
}

// ParseWire resolves a lowercase wire name to its index.
func ParseWire(name string) (Wire, error) {
	for i, n := range wireNames {
		if n == name {
			return Wire(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWire, name)
}

// Tristate represents the known connection state of a wire.
//
// Wires start Unknown after a device reset and become Asserted or
// Deasserted as control commands succeed or the device reports state.
type Tristate uint8

const (
	Unknown Tristate = iota
	Asserted
	Deasserted
)

// String returns a human-readable state name for logging.
func (t Tristate) String() string {
	switch t {
	case Asserted:
		return "asserted"
	case Deasserted:
		return "deasserted"
	default:
		return "unknown"
	}
}
