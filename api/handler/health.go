package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cfscrape/models"
)

// Version is reported by /health.
const Version = "0.1.0"

// Health returns a handler for GET /health.
//
// Reports browser session usage and degrades status once the number of
// concurrently open sessions reaches the configured warning threshold.
func Health(ex ContentExtractor, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := ex.Stats()

		status := "healthy"
		if stats.WarnThreshold > 0 && stats.ActiveSessions >= stats.WarnThreshold {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			SessionStats: stats,
			Version:      Version,
		})
	}
}
