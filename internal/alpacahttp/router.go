// Package alpacahttp wires an alpaca.Device onto a gin HTTP server:
// the ASCOM Alpaca focuser endpoints, the management API, and the
// supplemented GUI/status endpoints SPEC_FULL.md adds. Grounded on
// the ascomserver reference's Server type for the endpoint surface,
// implemented with gin-gonic/gin since the teacher's host service
// (host/cmd/gopper-host) has no HTTP layer of its own to imitate.
package alpacahttp

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/robofocus/alpaca-bridge/internal/alpaca"
	"github.com/robofocus/alpaca-bridge/internal/logging"
)

const (
	apiVersion        = 1
	serverName        = "Robofocus Alpaca Bridge"
	serverManufacturer = "robofocus-alpaca-bridge"
)

// NewRouter builds the gin engine for device, bound to serverVersion
// (reported by the management API) and logging every request through
// log.
func NewRouter(device *alpaca.Device, ring *logging.RingBuffer, log *zap.Logger, serverVersion string) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(ginZapLogger(log), gin.Recovery())

	registerManagementRoutes(r, serverVersion)
	registerFocuserRoutes(r, device)
	registerGUIRoutes(r, device, ring)

	return r
}

// ginZapLogger adapts gin's middleware chain to zap, grounded on the
// teacher's pervasive "logger passed in, never global" convention.
func ginZapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

// clientTxnID extracts ClientTransactionID from the request, defaulting
// to 0 when the client omits it (permitted by the Alpaca spec).
func clientTxnID(c *gin.Context) int32 {
	raw := c.Query("ClientTransactionID")
	if raw == "" {
		raw = c.PostForm("ClientTransactionID")
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}

func intParam(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		raw = c.PostForm(name)
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

func boolParam(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		raw = c.PostForm(name)
	}
	v, err := strconv.ParseBool(raw)
	return v, err == nil
}
