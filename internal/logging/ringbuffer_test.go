package logging

import (
	"fmt"
	"testing"
)

func TestRingBufferRetainsLastN(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write([]byte(fmt.Sprintf("line %d", i)))
	}
	lines := rb.Lines()
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	want := []string{"line 2", "line 3", "line 4"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], w)
		}
	}
}

func TestRingBufferBelowCapacity(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte("only one"))
	lines := rb.Lines()
	if len(lines) != 1 || lines[0] != "only one" {
		t.Errorf("lines = %v, want [\"only one\"]", lines)
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(3)
	rb.Write([]byte("a"))
	rb.Clear()
	if len(rb.Lines()) != 0 {
		t.Error("expected empty buffer after Clear")
	}
}

func TestNewBuildsLoggerAndRing(t *testing.T) {
	log, ring := New(Options{Level: "info", RingCapacity: 10})
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	if ring == nil {
		t.Fatal("expected non-nil ring buffer")
	}
	log.Info("hello")
	log.Sync()
	if len(ring.Lines()) == 0 {
		t.Error("expected the ring buffer to capture the log line")
	}
}

func TestNewWithoutRingCapacity(t *testing.T) {
	log, ring := New(Options{Level: "info"})
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	if ring != nil {
		t.Error("expected nil ring buffer when RingCapacity is 0")
	}
}
