// Package api serves exhibitor extraction over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/fairscrape/api/handler"
	"github.com/use-agent/fairscrape/api/middleware"
	"github.com/use-agent/fairscrape/cache"
	"github.com/use-agent/fairscrape/config"
	"github.com/use-agent/fairscrape/extract"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(r handler.Renderer, ex *extract.Extractor, cfg *config.Config, startTime time.Time, version string) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	v1 := engine.Group("/api/v1")
	v1.GET("/health", handler.Health(r, startTime, version))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/extract", handler.Extract(r, ex, cache.New(cfg.Cache.MaxEntries)))
	protected.POST("/collect", handler.Collect(r, cfg.Fair))

	return engine
}
