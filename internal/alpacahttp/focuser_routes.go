package alpacahttp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robofocus/alpaca-bridge/internal/alpaca"
)

// registerFocuserRoutes binds the IFocuserV3-shaped surface spec.md
// §6 names under /api/v1/focuser/0/..., plus the non-standard verbs
// SPEC_FULL.md supplements (backlash, setzero, sync, max-travel).
// Device number is hard-coded to 0: multi-focuser support is an
// explicit Non-goal.
func registerFocuserRoutes(r *gin.Engine, d *alpaca.Device) {
	g := r.Group("/api/v1/focuser/0")

	g.GET("/connected", func(c *gin.Context) { c.JSON(http.StatusOK, d.Connected(clientTxnID(c))) })
	g.PUT("/connected", func(c *gin.Context) {
		connect, ok := boolParam(c, "Connected")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "Connected must be true or false"))
			return
		}
		c.JSON(http.StatusOK, d.SetConnected(clientTxnID(c), connect))
	})

	g.GET("/position", func(c *gin.Context) { c.JSON(http.StatusOK, d.Position(clientTxnID(c))) })
	g.GET("/maxstep", func(c *gin.Context) { c.JSON(http.StatusOK, d.MaxStep(clientTxnID(c))) })
	g.GET("/maxincrement", func(c *gin.Context) { c.JSON(http.StatusOK, d.MaxIncrement(clientTxnID(c))) })
	g.GET("/ismoving", func(c *gin.Context) { c.JSON(http.StatusOK, d.IsMoving(clientTxnID(c))) })
	g.GET("/temperature", func(c *gin.Context) { c.JSON(http.StatusOK, d.Temperature(clientTxnID(c))) })
	g.GET("/tempcompavailable", func(c *gin.Context) { c.JSON(http.StatusOK, d.TempCompAvailable(clientTxnID(c))) })
	g.GET("/tempcomp", func(c *gin.Context) { c.JSON(http.StatusOK, d.TempComp(clientTxnID(c))) })
	g.PUT("/tempcomp", func(c *gin.Context) {
		enabled, _ := boolParam(c, "TempComp")
		c.JSON(http.StatusOK, d.SetTempComp(clientTxnID(c), enabled))
	})
	g.GET("/absolute", func(c *gin.Context) { c.JSON(http.StatusOK, d.Absolute(clientTxnID(c))) })

	// ASCOM common/fixed-value endpoints every driver must expose
	// (spec.md §4.3/§6), never touching the controller.
	g.GET("/interfaceversion", func(c *gin.Context) { c.JSON(http.StatusOK, d.InterfaceVersion(clientTxnID(c))) })
	g.GET("/driverversion", func(c *gin.Context) { c.JSON(http.StatusOK, d.DriverVersion(clientTxnID(c))) })
	g.GET("/name", func(c *gin.Context) { c.JSON(http.StatusOK, d.Name(clientTxnID(c))) })
	g.GET("/description", func(c *gin.Context) { c.JSON(http.StatusOK, d.Description(clientTxnID(c))) })
	g.GET("/supportedactions", func(c *gin.Context) { c.JSON(http.StatusOK, d.SupportedActions(clientTxnID(c))) })
	g.GET("/stepsize", func(c *gin.Context) { c.JSON(http.StatusOK, d.StepSize(clientTxnID(c))) })

	g.PUT("/move", func(c *gin.Context) {
		pos, ok := intParam(c, "Position")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "Position must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.Move(clientTxnID(c), pos))
	})
	g.PUT("/halt", func(c *gin.Context) { c.JSON(http.StatusOK, d.Halt(clientTxnID(c))) })

	// Supplemented, non-ASCOM-standard verbs (SPEC_FULL.md).
	g.GET("/backlash", func(c *gin.Context) { c.JSON(http.StatusOK, d.Backlash(clientTxnID(c))) })
	g.PUT("/backlash", func(c *gin.Context) {
		v, ok := intParam(c, "Backlash")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "Backlash must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.SetBacklash(clientTxnID(c), v))
	})
	g.PUT("/setzero", func(c *gin.Context) {
		v, ok := intParam(c, "Position")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "Position must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.SetZero(clientTxnID(c), v))
	})
	g.PUT("/sync", func(c *gin.Context) {
		v, ok := intParam(c, "Position")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "Position must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.SyncPosition(clientTxnID(c), v))
	})
	g.PUT("/maxtravel", func(c *gin.Context) {
		v, ok := intParam(c, "MaxTravel")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "MaxTravel must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.SetMaxTravel(clientTxnID(c), v))
	})
	g.PUT("/maxincrement", func(c *gin.Context) {
		v, ok := intParam(c, "MaxIncrement")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "MaxIncrement must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.SetMaxIncrement(clientTxnID(c), v))
	})
	g.PUT("/minposition", func(c *gin.Context) {
		v, ok := intParam(c, "MinPosition")
		if !ok {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(clientTxnID(c), 0, alpaca.ErrorCodeInvalidValue, "MinPosition must be an integer"))
			return
		}
		c.JSON(http.StatusOK, d.SetMinPosition(clientTxnID(c), v))
	})
	g.GET("/firmware", func(c *gin.Context) { c.JSON(http.StatusOK, d.Firmware(clientTxnID(c))) })
}
