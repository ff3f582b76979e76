package handlers

import (
	"net/http"

	"clinicbot/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest backend health snapshot. The service is
// considered up while the process serves requests; degraded backends are
// reported but do not change the status code.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	overall := "ok"
	if !status.Mongo {
		overall = "degraded"
	}
	for _, up := range status.Redis {
		if !up {
			overall = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": overall, "backends": status})
}
