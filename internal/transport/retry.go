package transport

import (
	"errors"
	"fmt"
	"time"
)

// maxAttempts is the retry budget for a single logical command, per
// spec: transient failures get up to three transmission attempts.
const maxAttempts = 3

// retryBackoff is inserted between failed attempts after flushing
// both buffers, long enough for the hardware to settle and discard
// whatever it was mid-way through sending.
const retryBackoff = 500 * time.Millisecond

// rawTransport is the single-attempt contract each Port
// implementation provides; exchangeWithRetry layers the shared
// three-attempt/flush/backoff policy on top of it so the policy is
// written exactly once for both the real serial link and the
// simulator.
type rawTransport interface {
	rawExchange(cmd string, value int) (Packet, error)
	flush()
}

// exchangeWithRetry implements spec.md §4.1's retry policy: a retry
// is triggered by a read timeout, a checksum mismatch, or a
// well-formed reply whose command prefix does not match the one
// requested (an unrelated broadcast interleaving with our reply).
// Between attempts both buffers are flushed and a short backoff is
// inserted. After three failed attempts the last error is returned,
// wrapped so callers can distinguish SerialTimeout from ProtocolError.
func exchangeWithRetry(rt rawTransport, cmd string, value int) (Packet, error) {
	expected := expectedReplyCmd(cmd)
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			rt.flush()
			time.Sleep(retryBackoff)
		}

		reply, err := rt.rawExchange(cmd, value)
		if err != nil {
			lastErr = err
			continue
		}
		if reply.Cmd != expected {
			lastErr = fmt.Errorf("%w: expected %s reply, got %s", ErrProtocol, expected, reply.Cmd)
			continue
		}
		return reply, nil
	}

	if errors.Is(lastErr, ErrSerialTimeout) {
		return Packet{}, fmt.Errorf("%w after %d attempts", ErrSerialTimeout, maxAttempts)
	}
	return Packet{}, fmt.Errorf("%w after %d attempts: %v", ErrProtocol, maxAttempts, lastErr)
}

// expectedReplyCmd gives the reply prefix a well-behaved exchange for
// cmd should carry. Position-affecting commands (goto, jog, sync,
// halt) all reply with the generic "FD" position frame rather than
// echoing their own letters; read/write-register commands (firmware,
// temperature, backlash, max travel) reply with their own letters.
func expectedReplyCmd(cmd string) string {
	switch cmd {
	case "FG", "FI", "FO", "FS", "FQ":
		return "FD"
	default:
		return cmd
	}
}
