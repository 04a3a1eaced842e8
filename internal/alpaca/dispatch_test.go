package alpaca

import (
	"testing"

	"github.com/robofocus/alpaca-bridge/internal/focuser"
	"github.com/robofocus/alpaca-bridge/internal/transport"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	sim := transport.NewSimulator(transport.SimulatorConfig{
		Firmware:         "002100",
		InitialPosition:  30000,
		MaxTravel:        60000,
		SpeedStepsPerSec: 5000,
	})
	cfg := focuser.DefaultConfig()
	cfg.IdlePollInterval = 0
	controller := focuser.New(sim, cfg, nil)
	d := NewDevice("robofocus-0", "Robofocus Focuser", "sim", 9600, "1.0.0-test", 5.0, controller, nil)
	t.Cleanup(func() { controller.Disconnect() })
	return d
}

func TestSetConnectedOpensTransport(t *testing.T) {
	d := newTestDevice(t)
	resp := d.SetConnected(1, true)
	if resp.ErrorNumber != 0 {
		t.Fatalf("SetConnected(true) error = %d %s", resp.ErrorNumber, resp.ErrorMessage)
	}
	if !d.controller.IsConnected() {
		t.Error("expected controller connected after SetConnected(true)")
	}
}

func TestPositionBeforeConnectReturnsNotConnectedError(t *testing.T) {
	d := newTestDevice(t)
	resp := d.Position(1)
	if resp.ErrorNumber != focuser.KindNotConnected.AlpacaNumber() {
		t.Errorf("ErrorNumber = %d, want %d", resp.ErrorNumber, focuser.KindNotConnected.AlpacaNumber())
	}
}

func TestMoveReportsMovingImmediately(t *testing.T) {
	d := newTestDevice(t)
	d.SetConnected(1, true)

	resp := d.Move(2, 30500)
	if resp.ErrorNumber != 0 {
		t.Fatalf("Move error = %d %s", resp.ErrorNumber, resp.ErrorMessage)
	}

	moving := d.IsMoving(3)
	if moving.Value != true {
		t.Errorf("expected IsMoving true immediately after Move, got %v", moving.Value)
	}
}

func TestMoveOutOfRangeMapsToInvalidValue(t *testing.T) {
	d := newTestDevice(t)
	d.SetConnected(1, true)

	resp := d.Move(2, 999999)
	if resp.ErrorNumber != focuser.KindInvalidValue.AlpacaNumber() {
		t.Errorf("ErrorNumber = %d, want %d", resp.ErrorNumber, focuser.KindInvalidValue.AlpacaNumber())
	}
}

func TestServerTransactionIDIncrements(t *testing.T) {
	d := newTestDevice(t)
	first := d.Connected(1).ServerTransactionID
	second := d.Connected(2).ServerTransactionID
	if second <= first {
		t.Errorf("expected increasing server transaction IDs, got %d then %d", first, second)
	}
}

func TestFixedValueEndpoints(t *testing.T) {
	d := newTestDevice(t)

	if got := d.InterfaceVersion(1).Value; got != 3 {
		t.Errorf("InterfaceVersion = %v, want 3", got)
	}
	if got := d.DriverVersion(1).Value; got != "1.0.0-test" {
		t.Errorf("DriverVersion = %v, want 1.0.0-test", got)
	}
	if got := d.Name(1).Value; got != "Robofocus Focuser" {
		t.Errorf("Name = %v, want Robofocus Focuser", got)
	}
	if got := d.Description(1).Value; got == "" {
		t.Error("Description should not be empty")
	}
	actions, ok := d.SupportedActions(1).Value.([]string)
	if !ok || len(actions) != 0 {
		t.Errorf("SupportedActions = %v, want an empty slice", d.SupportedActions(1).Value)
	}
	if got := d.StepSize(1).Value; got != 5.0 {
		t.Errorf("StepSize = %v, want 5.0", got)
	}
}

func TestClientTransactionIDIsEchoed(t *testing.T) {
	d := newTestDevice(t)
	resp := d.Connected(42)
	if resp.ClientTransactionID != 42 {
		t.Errorf("ClientTransactionID = %d, want 42", resp.ClientTransactionID)
	}
}
