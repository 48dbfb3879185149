package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/api/handler"
	"github.com/use-agent/linkcard/api/middleware"
	"github.com/use-agent/linkcard/cache"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/resolver"
	"github.com/use-agent/linkcard/webhook"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health sits outside auth so monitoring checks always work.
func NewRouter(res *resolver.Resolver, cfg *config.Config, store cache.Store, notifier *webhook.Notifier, browserDriver string, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(store, browserDriver, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/resolve", handler.Resolve(res, cfg.Fetch.MaxResolveTime))

	protected.POST("/batch/resolve", handler.PostBatch(res, cfg.Batch, cfg.Fetch.MaxResolveTime, notifier))
	protected.GET("/batch/:id", handler.GetBatch())

	return r
}
