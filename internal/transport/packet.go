package transport

import (
	"fmt"
)

// FrameSize is the fixed length of every Robofocus request and reply:
// two command letters, six decimal digits, one checksum byte.
const FrameSize = 9

// Packet is a decoded 9-byte Robofocus frame.
type Packet struct {
	Cmd   string // two ASCII letters, e.g. "FD"
	Value int    // 0..999999
}

// EncodePacket renders cmd/value as the 9 bytes written to the wire.
// cmd must be exactly two ASCII letters; value must fit in six decimal
// digits (0..999999).
func EncodePacket(cmd string, value int) ([FrameSize]byte, error) {
	var frame [FrameSize]byte
	if len(cmd) != 2 {
		return frame, fmt.Errorf("transport: command %q is not two letters", cmd)
	}
	if value < 0 || value > 999999 {
		return frame, fmt.Errorf("transport: value %d out of six-digit range", value)
	}

	frame[0] = cmd[0]
	frame[1] = cmd[1]
	digits := fmt.Sprintf("%06d", value)
	copy(frame[2:8], digits)
	frame[8] = Checksum(frame[:8])
	return frame, nil
}

// DecodePacket parses and validates a 9-byte reply frame.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) != FrameSize {
		return Packet{}, fmt.Errorf("transport: frame is %d bytes, want %d", len(b), FrameSize)
	}
	if b[8] != Checksum(b[:8]) {
		return Packet{}, fmt.Errorf("%w: checksum mismatch", ErrProtocol)
	}
	for _, c := range b[2:8] {
		if c < '0' || c > '9' {
			return Packet{}, fmt.Errorf("%w: non-digit in value field", ErrProtocol)
		}
	}
	value := 0
	for _, c := range b[2:8] {
		value = value*10 + int(c-'0')
	}
	return Packet{Cmd: string(b[0:2]), Value: value}, nil
}

// Bytes re-encodes a Packet to its 9-byte wire form. Used by the
// simulator to hand back frames without going through the fallible
// string-formatting path twice.
func (p Packet) Bytes() [FrameSize]byte {
	frame, err := EncodePacket(p.Cmd, p.Value)
	if err != nil {
		// Packet was constructed by DecodePacket or by this package's
		// own simulator logic, both of which only ever produce
		// in-range values; a failure here means an internal bug.
		panic(err)
	}
	return frame
}
