package logging

import "sync"

// RingBuffer retains the last capacity log lines written to it,
// backing the GUI's log view and logs-clear action (SPEC_FULL.md's
// supplemented GUI feature; the ~500-line default mirrors the
// console scrollback the teacher's interactive CLI offered).
type RingBuffer struct {
	mu       sync.Mutex
	lines    [][]byte
	capacity int
	next     int
	full     bool
}

// NewRingBuffer returns a buffer retaining the last capacity writes.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		lines:    make([][]byte, capacity),
		capacity: capacity,
	}
}

// Write implements zapcore.WriteSyncer / io.Writer. Each call is
// treated as one log line; zap always calls Write once per encoded
// entry.
func (b *RingBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	line := make([]byte, len(p))
	copy(line, p)
	b.lines[b.next] = line
	b.next = (b.next + 1) % b.capacity
	if b.next == 0 {
		b.full = true
	}
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer; the buffer is always in memory
// so there is nothing to flush.
func (b *RingBuffer) Sync() error { return nil }

// Lines returns the retained lines oldest-first.
func (b *RingBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []string
	if b.full {
		for i := 0; i < b.capacity; i++ {
			idx := (b.next + i) % b.capacity
			if b.lines[idx] != nil {
				out = append(out, string(b.lines[idx]))
			}
		}
		return out
	}
	for i := 0; i < b.next; i++ {
		out = append(out, string(b.lines[i]))
	}
	return out
}

// Clear empties the buffer (the GUI's logs-clear action).
func (b *RingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = make([][]byte, b.capacity)
	b.next = 0
	b.full = false
}
