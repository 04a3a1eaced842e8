package alpacahttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// registerManagementRoutes binds the /management/... endpoints every
// Alpaca server must expose, per spec.md §6, constants grounded on
// the ascomserver reference's AlpacaAPIVersion/DefaultServerName.
func registerManagementRoutes(r *gin.Engine, serverVersion string) {
	r.GET("/management/apiversions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"Value": []int{apiVersion}, "ClientTransactionID": 0, "ServerTransactionID": 0, "ErrorNumber": 0, "ErrorMessage": ""})
	})

	r.GET("/management/v1/description", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"Value": gin.H{
				"ServerName":          serverName,
				"Manufacturer":        serverManufacturer,
				"ManufacturerVersion": serverVersion,
				"Location":            "Observatory",
			},
			"ClientTransactionID": 0,
			"ServerTransactionID": 0,
			"ErrorNumber":          0,
			"ErrorMessage":         "",
		})
	})

	r.GET("/management/v1/configureddevices", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"Value": []gin.H{{
				"DeviceName":   serverName,
				"DeviceType":   "Focuser",
				"DeviceNumber": 0,
				"UniqueID":     focuserUniqueID(),
			}},
			"ClientTransactionID": 0,
			"ServerTransactionID": 0,
			"ErrorNumber":          0,
			"ErrorMessage":         "",
		})
	})
}

// focuserUniqueID is a stable, deterministic UUID for the single
// focuser this server ever exposes, derived from its device-type
// name so restarts advertise the same identity to ASCOM clients.
func focuserUniqueID() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("robofocus-alpaca-bridge/focuser/0")).String()
}
