package alpacahttp

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/shlex"

	"github.com/robofocus/alpaca-bridge/internal/alpaca"
	"github.com/robofocus/alpaca-bridge/internal/logging"
)

// registerGUIRoutes binds the supplemented, non-ASCOM GUI endpoints
// SPEC_FULL.md adds: a log tail view and an ExecuteRaw diagnostic
// passthrough, standing in for the teacher's interactive console
// commands (dict/raw/get_uptime) now that there is no terminal
// session to type them into.
func registerGUIRoutes(r *gin.Engine, d *alpaca.Device, ring *logging.RingBuffer) {
	g := r.Group("/gui")

	g.GET("/logs", func(c *gin.Context) {
		if ring == nil {
			c.JSON(http.StatusOK, gin.H{"lines": []string{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"lines": ring.Lines()})
	})

	g.POST("/logs/clear", func(c *gin.Context) {
		if ring != nil {
			ring.Clear()
		}
		c.Status(http.StatusNoContent)
	})

	g.POST("/execute-raw", func(c *gin.Context) {
		var req struct {
			Cmd   string `json:"cmd" binding:"required"`
			Value int    `json:"value"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(0, 0, alpaca.ErrorCodeInvalidValue, err.Error()))
			return
		}
		c.JSON(http.StatusOK, d.ExecuteRaw(clientTxnID(c), req.Cmd, req.Value))
	})

	// console accepts a single typed command line ("FG 30000"), the
	// GUI's stand-in for the teacher's interactive dictionary console.
	// shlex handles quoting the same way a shell would, so a
	// free-typed line never needs its own ad hoc tokenizer.
	g.POST("/console", func(c *gin.Context) {
		var req struct {
			Line string `json:"line" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(0, 0, alpaca.ErrorCodeInvalidValue, err.Error()))
			return
		}
		tokens, err := shlex.Split(req.Line)
		if err != nil || len(tokens) == 0 {
			c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(0, 0, alpaca.ErrorCodeInvalidValue, "could not parse command line"))
			return
		}
		cmd := tokens[0]
		value := 0
		if len(tokens) > 1 {
			v, err := strconv.Atoi(tokens[1])
			if err != nil {
				c.JSON(http.StatusBadRequest, alpaca.NewErrorResponse(0, 0, alpaca.ErrorCodeInvalidValue, "command argument must be an integer"))
				return
			}
			value = v
		}
		c.JSON(http.StatusOK, d.ExecuteRaw(clientTxnID(c), cmd, value))
	})
}
