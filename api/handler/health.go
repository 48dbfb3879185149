package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/cache"
	"github.com/use-agent/linkcard/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the cache backend does not answer a ping.
func Health(store cache.Store, browserDriver string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		backend := "none"
		if store != nil {
			backend = store.Backend()
			if p, ok := store.(cache.Pinger); ok {
				if err := p.Ping(c.Request.Context()); err != nil {
					status = "degraded"
				}
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        status,
			Uptime:        time.Since(startTime).Round(time.Second).String(),
			Version:       Version,
			CacheBackend:  backend,
			BrowserDriver: browserDriver,
		})
	}
}
