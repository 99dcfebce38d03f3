// Package handlers exposes imports, runs and the catalog over the internal HTTP API
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tkshop/catalog-service/internal/catalog"
	"github.com/tkshop/catalog-service/internal/importer"
	"github.com/tkshop/catalog-service/internal/pipeline"
)

// DefaultMaxBodyBytes caps inline XML uploads
const DefaultMaxBodyBytes = 64 << 20

// Config configures a Handler
type Config struct {
	// Defaults are the options a request starts from
	Defaults     importer.Options
	MaxBodyBytes int64
	// Ping checks the database; nil reports it as not configured
	Ping func(ctx context.Context) error
	// SiteURL is written into WXR exports
	SiteURL string
}

// Handler serves the internal API
type Handler struct {
	runner *pipeline.Runner
	store  catalog.Store
	cfg    Config
}

// New creates a handler over runner and the catalog it imports into
func New(runner *pipeline.Runner, store catalog.Store, cfg Config) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{runner: runner, store: store, cfg: cfg}
}

// Register mounts the internal routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.POST("/import", h.StartImport)

	runs := r.Group("/runs")
	{
		runs.GET("", h.ListRuns)
		runs.GET("/:runId", h.GetRun)
		runs.GET("/:runId/report", h.GetRunReport)
	}

	r.GET("/products", h.ListProducts)
	r.GET("/export", h.ExportCatalog)
}
