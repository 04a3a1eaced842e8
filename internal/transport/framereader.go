package transport

import "time"

// byteReader is the minimal contract the frame reader needs from
// whatever is standing in for the wire: one byte at a time, bounded
// by a caller-supplied timeout.
type byteReader interface {
	readByte(timeout time.Duration) (byte, error)
}

// isReplySecondLetter reports whether b is the second letter of a
// two-letter command this driver ever expects as a reply prefix. A lone 'F' not
// followed by one of these is the standalone "finished" marker, not a
// frame start.
func isReplySecondLetter(b byte) bool {
	switch b {
	case 'V', 'D', 'I', 'O', 'T', 'B', 'L', 'S', 'Q', 'G':
		return true
	default:
		return false
	}
}

// readFrame assembles the next 9-byte reply from r, tolerating
// intermixed single-byte movement events. Every byte observed outside
// a frame that equals 'I' or 'O' is appended to asyncOut; a lone 'F'
// not followed by a recognized command letter is also recorded as a
// "finished" event and the byte after it is reconsidered from the
// top. Synchronization begins as soon as an 'F' followed by a known
// command letter is seen — in practice the start of every reply.
func readFrame(r byteReader, timeout time.Duration, asyncOut *[]Event) (Packet, error) {
	deadline := time.Now().Add(timeout)
	var pending *byte

	next := func() (byte, error) {
		if pending != nil {
			b := *pending
			pending = nil
			return b, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, ErrSerialTimeout
		}
		return r.readByte(remaining)
	}

	for {
		b, err := next()
		if err != nil {
			return Packet{}, err
		}
		if b != 'F' {
			if b == 'I' || b == 'O' {
				*asyncOut = append(*asyncOut, Event(b))
			}
			continue
		}

		second, err := next()
		if err != nil {
			return Packet{}, err
		}
		if !isReplySecondLetter(second) {
			*asyncOut = append(*asyncOut, EventFinished)
			pending = &second
			continue
		}

		var frame [FrameSize]byte
		frame[0] = 'F'
		frame[1] = second
		for i := 2; i < FrameSize; i++ {
			nb, err := next()
			if err != nil {
				return Packet{}, err
			}
			frame[i] = nb
		}
		return DecodePacket(frame[:])
	}
}
