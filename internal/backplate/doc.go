// Package backplate speaks the serial protocol of the climate-control
// backplate board.
//
// The wire format is flag-delimited binary framing: each frame is a
// 0x7E flag, an escaped body of type(2) + length(2) + payload + CRC-16,
// and a closing flag. The decoder resynchronises after corrupt frames
// so line noise costs one frame, not the session.
//
// A Session owns the port. Its reader goroutine only decodes bytes into
// frames; all protocol interpretation happens in Dispatch, which the
// owner calls from a single event loop. That keeps every callback and
// the wire state table on one goroutine.
package backplate
