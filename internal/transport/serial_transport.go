package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialTransport is the real RS-232 Port implementation, grounded on
// host/serial/serial_native.go's tarm/serial wrapper: same library,
// same open/read/write/close shape, retargeted from Klipper's
// 250000-baud USB CDC framing to Robofocus's 9600 8N1 nine-byte
// frames.
type SerialTransport struct {
	mu sync.Mutex // guards everything below; at most one Exchange in flight

	port     *serial.Port
	timeout  time.Duration
	firmware string

	readBuf       []byte // bytes read from the port not yet dispensed
	pendingEvents []Event
}

// NewSerialTransport returns an unconnected real transport.
func NewSerialTransport() *SerialTransport {
	return &SerialTransport{}
}

func (t *SerialTransport) Connect(descriptor string, baud int, timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cfg := &serial.Config{
		Name:        descriptor,
		Baud:        baud,
		ReadTimeout: timeout,
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	t.port = port
	t.timeout = timeout
	t.readBuf = nil
	t.pendingEvents = nil

	t.flushLocked()

	reply, err := exchangeWithRetry(t, "FV", 0)
	if err != nil {
		t.port.Close()
		t.port = nil
		return fmt.Errorf("%w: handshake failed: %v", ErrProtocol, err)
	}
	t.firmware = fmt.Sprintf("%06d", reply.Value)
	return nil
}

func (t *SerialTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.firmware = ""
	return err
}

func (t *SerialTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

func (t *SerialTransport) Firmware() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firmware
}

func (t *SerialTransport) Exchange(cmd string, value int) (Packet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return Packet{}, ErrNotConnected
	}
	return exchangeWithRetry(t, cmd, value)
}

func (t *SerialTransport) HaltRaw() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return ErrNotConnected
	}
	_, err := t.port.Write([]byte{'\r'})
	return err
}

func (t *SerialTransport) DrainAsync() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	t.drainNonBlockingLocked()
	events := t.pendingEvents
	t.pendingEvents = nil
	return events
}

// rawExchange performs one unretried request/reply cycle. Caller
// holds t.mu.
func (t *SerialTransport) rawExchange(cmd string, value int) (Packet, error) {
	frame, err := EncodePacket(cmd, value)
	if err != nil {
		return Packet{}, err
	}
	if _, err := t.port.Write(frame[:]); err != nil {
		return Packet{}, fmt.Errorf("%w: write failed: %v", ErrSerialTimeout, err)
	}
	reply, err := readFrame(t, t.timeout, &t.pendingEvents)
	if err != nil {
		return Packet{}, err
	}
	return reply, nil
}

// flush is the rawTransport hook invoked between retry attempts.
func (t *SerialTransport) flush() {
	t.flushLocked()
}

func (t *SerialTransport) flushLocked() {
	t.readBuf = nil
	// Best-effort input drain: tarm/serial has no ioctl-level flush,
	// so read whatever is immediately available and discard it.
	buf := make([]byte, 256)
	for i := 0; i < 4; i++ {
		n, err := t.port.Read(buf)
		if err != nil || n == 0 {
			break
		}
	}
}

// readByte implements byteReader against the underlying port,
// dispensing from readBuf before issuing a new Read.
func (t *SerialTransport) readByte(timeout time.Duration) (byte, error) {
	if len(t.readBuf) > 0 {
		b := t.readBuf[0]
		t.readBuf = t.readBuf[1:]
		return b, nil
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		n, err := t.port.Read(buf)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrSerialTimeout, err)
		}
		if n > 0 {
			t.readBuf = append(t.readBuf, buf[:n]...)
			b := t.readBuf[0]
			t.readBuf = t.readBuf[1:]
			return b, nil
		}
	}
	return 0, ErrSerialTimeout
}

// drainNonBlockingLocked pulls any bytes currently sitting in the
// port's receive buffer (no command in flight) and classifies them as
// movement events, per DrainAsync's non-blocking contract.
func (t *SerialTransport) drainNonBlockingLocked() {
	buf := make([]byte, 256)
	// tarm/serial's configured ReadTimeout makes this call return
	// promptly with whatever is already buffered rather than blocking
	// for new data.
	n, err := t.port.Read(buf)
	if err != nil || n == 0 {
		return
	}
	for _, b := range buf[:n] {
		switch Event(b) {
		case EventInward, EventOutward, EventFinished:
			t.pendingEvents = append(t.pendingEvents, Event(b))
		}
	}
}
