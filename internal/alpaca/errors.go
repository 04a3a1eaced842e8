package alpaca

import (
	"errors"

	"github.com/robofocus/alpaca-bridge/internal/focuser"
)

// errorResponse turns any error returned by a Controller operation
// into an Alpaca error envelope. A *focuser.Error carries its own
// taxonomy; anything else is reported as ErrorCodeUnspecified so a
// driver bug never surfaces as a silent 200 with a zero value.
func errorResponse(err error, clientTxnID, serverTxnID int32) Response {
	var fe *focuser.Error
	if errors.As(err, &fe) {
		return NewErrorResponse(clientTxnID, serverTxnID, fe.Kind.AlpacaNumber(), fe.Error())
	}
	return NewErrorResponse(clientTxnID, serverTxnID, ErrorCodeUnspecified, err.Error())
}
