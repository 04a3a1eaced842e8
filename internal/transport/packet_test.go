package transport

import (
	"math"
	"testing"
)

func TestChecksum(t *testing.T) {
	cases := []struct {
		data []byte
		want byte
	}{
		{[]byte{}, 0},
		{[]byte{1, 2, 3}, 6},
		{[]byte{0xFF, 0xFF}, 0xFE},
	}
	for i, tc := range cases {
		if got := Checksum(tc.data); got != tc.want {
			t.Errorf("case %d: Checksum(%v) = %d, want %d", i, tc.data, got, tc.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := EncodePacket("FD", 30000)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	if frame[8] != Checksum(frame[:8]) {
		t.Errorf("checksum byte does not match first eight bytes")
	}

	got, err := DecodePacket(frame[:])
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if got.Cmd != "FD" || got.Value != 30000 {
		t.Errorf("round trip mismatch: got %+v", got)
	}

	reencoded := got.Bytes()
	if reencoded != frame {
		t.Errorf("encode(decode(p)) != p: %v != %v", reencoded, frame)
	}
}

func TestEncodePacketRejectsOutOfRange(t *testing.T) {
	if _, err := EncodePacket("FD", 1000000); err == nil {
		t.Error("expected error for value > 999999")
	}
	if _, err := EncodePacket("FD", -1); err == nil {
		t.Error("expected error for negative value")
	}
	if _, err := EncodePacket("FOO", 0); err == nil {
		t.Error("expected error for non-two-letter command")
	}
}

func TestDecodePacketRejectsBadChecksum(t *testing.T) {
	frame, _ := EncodePacket("FV", 2100)
	frame[8] ^= 0xFF
	if _, err := DecodePacket(frame[:]); err == nil {
		t.Error("expected checksum validation failure")
	}
}

func TestBacklashRoundTrip(t *testing.T) {
	for _, signed := range []int{-255, -20, -1, 0, 1, 20, 255} {
		raw, err := EncodeBacklash(signed)
		if err != nil {
			t.Fatalf("EncodeBacklash(%d): %v", signed, err)
		}
		got := DecodeBacklash(raw)
		if got != signed {
			t.Errorf("backlash round trip: EncodeBacklash(%d) -> %d -> DecodeBacklash -> %d", signed, raw, got)
		}
	}
}

func TestBacklashEncodingDirection(t *testing.T) {
	raw, err := EncodeBacklash(-20)
	if err != nil {
		t.Fatal(err)
	}
	// digit 1 (direction) must be 0 (inward), magnitude 20.
	if raw/100000 != 0 {
		t.Errorf("expected inward direction digit 0, got raw=%d", raw)
	}
	if raw%100000 != 20 {
		t.Errorf("expected magnitude 20, got raw=%d", raw)
	}

	raw, err = EncodeBacklash(20)
	if err != nil {
		t.Fatal(err)
	}
	if raw/100000 != 1 {
		t.Errorf("expected outward direction digit 1, got raw=%d", raw)
	}
}

func TestBacklashOutOfRange(t *testing.T) {
	if _, err := EncodeBacklash(256); err == nil {
		t.Error("expected error for backlash above 255")
	}
	if _, err := EncodeBacklash(-256); err == nil {
		t.Error("expected error for backlash below -255")
	}
}

func TestTemperatureDecoding(t *testing.T) {
	cases := []struct {
		raw  int
		want float64
	}{
		{0, -273.15},
		{600, 26.85},
	}
	for _, tc := range cases {
		if got := DecodeTemperature(tc.raw); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("DecodeTemperature(%d) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
