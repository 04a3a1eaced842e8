package transport

import (
	"errors"
	"testing"
	"time"
)

func newTestSimulator() *Simulator {
	return NewSimulator(SimulatorConfig{
		Firmware:         "002100",
		InitialPosition:  30000,
		MaxTravel:        60000,
		SpeedStepsPerSec: 2000, // fast, so tests don't sleep long
		BaseTempCelsius:  10,
	})
}

func TestSimulatorHandshake(t *testing.T) {
	sim := newTestSimulator()
	if err := sim.Connect("sim", 9600, time.Second); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if sim.Firmware() != "002100" {
		t.Errorf("Firmware() = %q, want 002100", sim.Firmware())
	}

	reply, err := sim.Exchange("FL", 0)
	if err != nil {
		t.Fatalf("Exchange FL: %v", err)
	}
	if reply.Value != 60000 {
		t.Errorf("max travel = %d, want 60000", reply.Value)
	}
}

func TestSimulatorMoveCompletes(t *testing.T) {
	sim := newTestSimulator()
	sim.Connect("sim", 9600, time.Second)

	reply, err := sim.Exchange("FG", 30100)
	if err != nil {
		t.Fatalf("Exchange FG: %v", err)
	}
	if reply.Cmd != "FD" || reply.Value != 30100 {
		t.Errorf("FG reply = %+v, want FD/30100", reply)
	}

	deadline := time.Now().Add(2 * time.Second)
	var sawFinished bool
	position := 30000
	for time.Now().Before(deadline) {
		for _, ev := range sim.DrainAsync() {
			switch ev {
			case EventOutward:
				position++
			case EventInward:
				position--
			case EventFinished:
				sawFinished = true
			}
		}
		if sawFinished {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !sawFinished {
		t.Fatal("never observed a finished event")
	}
	if position != 30100 {
		t.Errorf("tracked position = %d, want 30100", position)
	}
}

func TestSimulatorHaltMidway(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{
		Firmware:         "002100",
		InitialPosition:  30000,
		MaxTravel:        60000,
		SpeedStepsPerSec: 500,
	})
	sim.Connect("sim", 9600, time.Second)

	if _, err := sim.Exchange("FG", 60000); err != nil {
		t.Fatalf("Exchange FG: %v", err)
	}

	time.Sleep(1 * time.Second)
	if _, err := sim.Exchange("FQ", 0); err != nil {
		t.Fatalf("Exchange FQ: %v", err)
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	var sawFinished bool
	for time.Now().Before(deadline) {
		for _, ev := range sim.DrainAsync() {
			if ev == EventFinished {
				sawFinished = true
			}
		}
		if sawFinished {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !sawFinished {
		t.Fatal("halt never produced a finished event")
	}

	reply, err := sim.Exchange("FG", 0) // FG 0 queries the current position; the reply is not checked here
	_ = reply
	_ = err
}

func TestSimulatorBacklashRoundTrip(t *testing.T) {
	sim := newTestSimulator()
	sim.Connect("sim", 9600, time.Second)

	raw, _ := EncodeBacklash(-20)
	reply, err := sim.Exchange("FB", raw)
	if err != nil {
		t.Fatalf("Exchange FB set: %v", err)
	}
	if DecodeBacklash(reply.Value) != -20 {
		t.Errorf("set reply backlash = %d, want -20", DecodeBacklash(reply.Value))
	}

	reply, err = sim.Exchange("FB", 0)
	if err != nil {
		t.Fatalf("Exchange FB get: %v", err)
	}
	if DecodeBacklash(reply.Value) != -20 {
		t.Errorf("get backlash = %d, want -20", DecodeBacklash(reply.Value))
	}
}

func TestSimulatorAsyncCharResilience(t *testing.T) {
	sim := newTestSimulator()
	sim.Connect("sim", 9600, time.Second)

	noise := make([]byte, 50)
	for i := range noise {
		noise[i] = byte(EventInward)
	}
	sim.InjectRaw(noise)

	reply, err := sim.Exchange("FT", 0)
	if err != nil {
		t.Fatalf("Exchange FT: %v", err)
	}
	if reply.Cmd != "FT" {
		t.Errorf("reply cmd = %q, want FT", reply.Cmd)
	}

	events := sim.DrainAsync()
	if len(events) != 50 {
		t.Fatalf("observed %d async events, want 50 (leftover I chars)", len(events))
	}
	for _, ev := range events {
		if ev != EventInward {
			t.Errorf("unexpected event %v among noise", ev)
		}
	}
}

func TestSimulatorChecksumRetry(t *testing.T) {
	sim := newTestSimulator()
	sim.Connect("sim", 9600, time.Second)

	sim.ForceNextChecksumError()
	reply, err := sim.Exchange("FT", 0)
	if err != nil {
		t.Fatalf("Exchange FT after forced checksum error: %v", err)
	}
	if reply.Cmd != "FT" {
		t.Errorf("reply cmd = %q, want FT", reply.Cmd)
	}
}

func TestSimulatorForcedTimeoutIsRetried(t *testing.T) {
	sim := newTestSimulator()
	sim.Connect("sim", 9600, time.Second)

	sim.ForceNextTimeout()
	// A single forced timeout should still succeed: only one of the
	// three attempts is poisoned.
	if _, err := sim.Exchange("FV", 0); err != nil {
		t.Fatalf("Exchange FV after one forced timeout: %v", err)
	}
}

func TestSimulatorNotConnected(t *testing.T) {
	sim := newTestSimulator()
	_, err := sim.Exchange("FV", 0)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestSimulatorSyncMinimumQuirk(t *testing.T) {
	sim := newTestSimulator()
	sim.Connect("sim", 9600, time.Second)

	reply, err := sim.Exchange("FS", 1)
	if err != nil {
		t.Fatalf("Exchange FS 1: %v", err)
	}
	if reply.Value != 30000 {
		t.Errorf("FS with value 1 should echo current position 30000, got %d", reply.Value)
	}

	reply, err = sim.Exchange("FS", 31000)
	if err != nil {
		t.Fatalf("Exchange FS 31000: %v", err)
	}
	if reply.Value != 31000 {
		t.Errorf("FS with value >= 2 should set position, got %d", reply.Value)
	}
}
