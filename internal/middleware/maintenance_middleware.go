package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qreta-backend-go/internal/config"
)

// maintenanceExempt lists the paths that must stay reachable while the
// platform is in maintenance mode. Health checks keep the load balancer
// happy and Stripe keeps retrying webhooks, so both bypass the gate.
var maintenanceExempt = map[string]bool{
	"/health":                 true,
	"/maintenance":            true,
	"/api/v1/billing/webhook": true,
}

// MaintenanceGate short-circuits every request with 503 while the
// MAINTENANCE_MODE flag is set, except the exempt paths above.
func MaintenanceGate(appConfig *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appConfig.MaintenanceMode || maintenanceExempt[c.Request.URL.Path] {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Service temporarily unavailable",
			Details: "The platform is undergoing scheduled maintenance. Please try again later.",
		})
	}
}

// MaintenancePage serves the maintenance status endpoint. When the flag is
// off, visitors are bounced back to the root so stale links do not park
// users on a maintenance screen.
func MaintenancePage(appConfig *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appConfig.MaintenanceMode {
			c.Redirect(http.StatusTemporaryRedirect, "/")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"maintenance": true,
			"message":     "The platform is undergoing scheduled maintenance. Please try again later.",
		})
	}
}
