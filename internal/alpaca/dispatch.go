package alpaca

import (
	"go.uber.org/zap"

	"github.com/robofocus/alpaca-bridge/internal/focuser"
)

// Device wraps a single focuser.Controller with the bookkeeping every
// Alpaca device needs: a unique ID, the serial parameters that
// Connected=true opens the controller with (the reported connection
// state is the controller's own), and the shared
// server-transaction-id counter. Grounded on the
// ascomserver reference's VirtualDevice, narrowed to exactly one
// device since multi-focuser support is an explicit Non-goal.
type Device struct {
	UniqueID      string
	name          string
	description   string
	driverVersion string
	stepSizeUM    float64

	controller *focuser.Controller
	txn        *TransactionCounter
	log        *zap.Logger

	descriptor string
	baud       int
}

// interfaceVersion is the ASCOM IFocuserV3 interface version this
// driver implements (spec.md §4.3's fixed-value endpoint).
const interfaceVersion = 3

// NewDevice wires a Device around an already-constructed controller.
// descriptor/baud are the serial parameters Connected=true triggers.
// driverVersion is reported verbatim by the "driverversion" fixed-value
// endpoint; stepSizeUM is the attached focuser's physical step size in
// micrometers, reported by "stepsize".
func NewDevice(uniqueID, name, descriptor string, baud int, driverVersion string, stepSizeUM float64, controller *focuser.Controller, log *zap.Logger) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	return &Device{
		UniqueID:      uniqueID,
		name:          name,
		description:   "Robofocus electronic focuser (Alpaca bridge)",
		driverVersion: driverVersion,
		stepSizeUM:    stepSizeUM,
		controller:    controller,
		txn:           &TransactionCounter{},
		log:           log,
		descriptor:    descriptor,
		baud:          baud,
	}
}

// wrap turns (value, err) into an envelope, tagging every response
// with a fresh server transaction ID.
func (d *Device) wrap(clientTxnID int32, value interface{}, err error) Response {
	serverTxnID := d.txn.Next()
	if err != nil {
		return errorResponse(err, clientTxnID, serverTxnID)
	}
	return NewSuccessResponse(value, clientTxnID, serverTxnID)
}

// Connected reports or sets the ASCOM "Connected" property. Setting it
// true opens the serial/simulator transport; setting it false closes
// it (refused while moving, per focuser.ErrDisconnectWhileMoving).
func (d *Device) Connected(clientTxnID int32) Response {
	return d.wrap(clientTxnID, d.controller.IsConnected(), nil)
}

func (d *Device) SetConnected(clientTxnID int32, connect bool) Response {
	if connect == d.controller.IsConnected() {
		return d.wrap(clientTxnID, nil, nil)
	}
	if connect {
		return d.wrap(clientTxnID, nil, d.controller.Connect(d.descriptor, d.baud))
	}
	return d.wrap(clientTxnID, nil, d.controller.Disconnect())
}

func (d *Device) Position(clientTxnID int32) Response {
	pos, err := d.controller.GetPosition()
	return d.wrap(clientTxnID, pos, err)
}

func (d *Device) MaxStep(clientTxnID int32) Response {
	max, err := d.controller.GetMax()
	return d.wrap(clientTxnID, max, err)
}

// MaxIncrement reports the same value as MaxStep. The separate per-move
// soft limit set through SetMaxIncrement (and enforced by Move) is not
// reported here.
func (d *Device) MaxIncrement(clientTxnID int32) Response {
	max, err := d.controller.GetMax()
	return d.wrap(clientTxnID, max, err)
}

func (d *Device) IsMoving(clientTxnID int32) Response {
	moving, err := d.controller.IsMoving()
	return d.wrap(clientTxnID, moving, err)
}

func (d *Device) Temperature(clientTxnID int32) Response {
	temp, err := d.controller.GetTemperature()
	return d.wrap(clientTxnID, temp, err)
}

func (d *Device) TempCompAvailable(clientTxnID int32) Response {
	return d.wrap(clientTxnID, false, nil)
}

func (d *Device) TempComp(clientTxnID int32) Response {
	return d.wrap(clientTxnID, false, nil)
}

func (d *Device) SetTempComp(clientTxnID int32, enabled bool) Response {
	if enabled {
		return d.wrap(clientTxnID, nil, newNotImplemented("temperature compensation is not supported by this focuser"))
	}
	return d.wrap(clientTxnID, nil, nil)
}

func (d *Device) Absolute(clientTxnID int32) Response {
	return d.wrap(clientTxnID, true, nil)
}

// --- ASCOM common/fixed-value endpoints (spec.md §4.3/§6). These
// never touch the controller; they describe the driver itself. ---

func (d *Device) InterfaceVersion(clientTxnID int32) Response {
	return d.wrap(clientTxnID, interfaceVersion, nil)
}

func (d *Device) DriverVersion(clientTxnID int32) Response {
	return d.wrap(clientTxnID, d.driverVersion, nil)
}

func (d *Device) Name(clientTxnID int32) Response {
	return d.wrap(clientTxnID, d.name, nil)
}

func (d *Device) Description(clientTxnID int32) Response {
	return d.wrap(clientTxnID, d.description, nil)
}

// SupportedActions is always empty: every driver-specific verb this
// bridge adds (backlash, setzero, sync, maxtravel, execute-raw, ...)
// is exposed as its own REST endpoint under /gui and /api/v1/focuser,
// not through the generic ASCOM Action dispatch.
func (d *Device) SupportedActions(clientTxnID int32) Response {
	return d.wrap(clientTxnID, []string{}, nil)
}

// StepSize reports the attached focuser's physical step size in
// micrometers, a configured constant rather than anything read from
// the hardware.
func (d *Device) StepSize(clientTxnID int32) Response {
	return d.wrap(clientTxnID, d.stepSizeUM, nil)
}

func (d *Device) Move(clientTxnID int32, position int) Response {
	return d.wrap(clientTxnID, nil, d.controller.Move(position))
}

func (d *Device) Halt(clientTxnID int32) Response {
	return d.wrap(clientTxnID, nil, d.controller.Halt())
}

// --- supplemented, non-ASCOM-standard actions, each exposed as its
// own REST endpoint rather than through the generic ASCOM Action
// dispatch (see SupportedActions). ---

func (d *Device) Backlash(clientTxnID int32) Response {
	v, err := d.controller.GetBacklash()
	return d.wrap(clientTxnID, v, err)
}

func (d *Device) SetBacklash(clientTxnID int32, signed int) Response {
	return d.wrap(clientTxnID, nil, d.controller.SetBacklash(signed))
}

func (d *Device) SetZero(clientTxnID int32, logicalValue int) Response {
	return d.wrap(clientTxnID, nil, d.controller.SetZero(logicalValue))
}

func (d *Device) SyncPosition(clientTxnID int32, rawValue int) Response {
	return d.wrap(clientTxnID, nil, d.controller.SyncPosition(rawValue))
}

func (d *Device) SetMaxTravel(clientTxnID int32, newMax int) Response {
	return d.wrap(clientTxnID, nil, d.controller.SetMaxTravel(newMax))
}

func (d *Device) SetMaxIncrement(clientTxnID int32, n int) Response {
	return d.wrap(clientTxnID, nil, d.controller.SetMaxIncrement(n))
}

func (d *Device) SetMinPosition(clientTxnID int32, n int) Response {
	return d.wrap(clientTxnID, nil, d.controller.SetMinPosition(n))
}

func (d *Device) Firmware(clientTxnID int32) Response {
	return d.wrap(clientTxnID, d.controller.Firmware(), nil)
}

// ExecuteRaw exposes focuser.Controller.ExecuteRaw as a supplemented
// diagnostic action, returning the reply command letter and value.
func (d *Device) ExecuteRaw(clientTxnID int32, cmd string, value int) Response {
	replyCmd, replyValue, err := d.controller.ExecuteRaw(cmd, value)
	if err != nil {
		return d.wrap(clientTxnID, nil, err)
	}
	return d.wrap(clientTxnID, map[string]interface{}{"Cmd": replyCmd, "Value": replyValue}, nil)
}

func newNotImplemented(msg string) error {
	return &focuser.Error{Kind: focuser.KindInvalidOperation, Msg: msg}
}
