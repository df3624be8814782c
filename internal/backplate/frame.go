package backplate

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// MessageType identifies the kind of payload a frame carries.
type MessageType uint16

// Outbound message types (gateway to device).
const (
	MsgReset           MessageType = 0x0001
	MsgPeriodicRequest MessageType = 0x0002
	MsgWireControl     MessageType = 0x0003
)

// Inbound message types (device to gateway).
const (
	MsgLog          MessageType = 0x8001
	MsgWeather      MessageType = 0x8002
	MsgPowerStatus  MessageType = 0x8003
	MsgFetPresence  MessageType = 0x8004
	MsgWireAsserted MessageType = 0x8005
)

// Framing constants.
const (
	// flagByte delimits frames on the serial line.
	flagByte = 0x7E

	// escapeByte introduces an escaped flag or escape byte inside a frame.
	// The escaped byte is XORed with escapeXOR.
	escapeByte = 0x7D
	escapeXOR  = 0x20

	// maxPayloadLen bounds a single frame payload. The firmware never
	// sends more than a log line, so this is generous.
	maxPayloadLen = 512

	// frameHeaderLen is type(2) + length(2).
	frameHeaderLen = 4

	// frameCRCLen is the trailing CRC-16 checksum.
	frameCRCLen = 2
)

// Frame is one decoded unit of the serial protocol.
type Frame struct {
	Type    MessageType
	Payload []byte
}

// crc16 computes CRC-16/CCITT-FALSE over data (poly 0x1021, init 0xFFFF).
func crc16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// EncodeFrame serialises a frame for the wire: a flag byte, the escaped
// header, payload, and CRC, and a closing flag byte.
func EncodeFrame(f Frame) ([]byte, error) {
	if len(f.Payload) > maxPayloadLen {
		return nil, fmt.Errorf("%w: payload %d bytes", ErrFrameTooLarge, len(f.Payload))
	}

	raw := make([]byte, frameHeaderLen+len(f.Payload)+frameCRCLen)
	binary.BigEndian.PutUint16(raw[0:2], uint16(f.Type))
	binary.BigEndian.PutUint16(raw[2:4], uint16(len(f.Payload)))
	copy(raw[frameHeaderLen:], f.Payload)
	binary.BigEndian.PutUint16(raw[frameHeaderLen+len(f.Payload):], crc16(raw[:frameHeaderLen+len(f.Payload)]))

	out := make([]byte, 0, len(raw)+4)
	out = append(out, flagByte)
	for _, b := range raw {
		if b == flagByte || b == escapeByte {
			out = append(out, escapeByte, b^escapeXOR)
		} else {
			out = append(out, b)
		}
	}
	out = append(out, flagByte)
	return out, nil
}

// Decoder reads frames from a serial byte stream.
//
// Corrupt frames return ErrBadFrame and the decoder resynchronises on
// the next flag byte, so a single glitch never poisons the stream.
type Decoder struct {
	r   *bufio.Reader
	acc []byte
	esc bool
}

// NewDecoder wraps r in a streaming frame decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   bufio.NewReaderSize(r, 1024),
		acc: make([]byte, 0, maxPayloadLen+frameHeaderLen+frameCRCLen),
	}
}

// Next blocks until a complete frame arrives or the stream fails.
//
// ErrBadFrame and ErrFrameTooLarge are recoverable; any other error is
// a transport failure and the decoder should be abandoned.
func (d *Decoder) Next() (Frame, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Frame{}, err
		}

		if b == flagByte {
			if d.esc {
				// A flag inside an escape sequence aborts the frame.
				d.esc = false
				d.acc = d.acc[:0]
				return Frame{}, fmt.Errorf("%w: flag inside escape", ErrBadFrame)
			}
			if len(d.acc) == 0 {
				// Back-to-back flags between frames, keep scanning.
				continue
			}
			frame, err := d.parse()
			d.acc = d.acc[:0]
			return frame, err
		}

		if d.esc {
			b ^= escapeXOR
			d.esc = false
		} else if b == escapeByte {
			d.esc = true
			continue
		}

		if len(d.acc) >= maxPayloadLen+frameHeaderLen+frameCRCLen {
			d.acc = d.acc[:0]
			d.esc = false
			return Frame{}, ErrFrameTooLarge
		}
		d.acc = append(d.acc, b)
	}
}

// parse validates the accumulated unescaped bytes as one frame.
func (d *Decoder) parse() (Frame, error) {
	if len(d.acc) < frameHeaderLen+frameCRCLen {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(d.acc))
	}

	body := d.acc[:len(d.acc)-frameCRCLen]
	want := binary.BigEndian.Uint16(d.acc[len(d.acc)-frameCRCLen:])
	if got := crc16(body); got != want {
		return Frame{}, fmt.Errorf("%w: crc mismatch got %#04x want %#04x", ErrBadFrame, got, want)
	}

	length := int(binary.BigEndian.Uint16(body[2:4]))
	if length != len(body)-frameHeaderLen {
		return Frame{}, fmt.Errorf("%w: length field %d, payload %d", ErrBadFrame, length, len(body)-frameHeaderLen)
	}

	payload := make([]byte, length)
	copy(payload, body[frameHeaderLen:])

	return Frame{
		Type:    MessageType(binary.BigEndian.Uint16(body[0:2])),
		Payload: payload,
	}, nil
}
