package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/bazargw/internal/backend"
	"github.com/vyrodovalexey/bazargw/internal/gateway"
	"github.com/vyrodovalexey/bazargw/internal/health"
	"github.com/vyrodovalexey/bazargw/internal/middleware"
	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// metricsPath is where the admin server exposes Prometheus metrics.
const metricsPath = "/metrics"

// newHealthHandler creates the health handler with one readiness check per
// backend family.
func newHealthHandler(registry *backend.Registry, logger observability.Logger) *health.Handler {
	h := health.NewHandler(logger, health.WithVersion(version))
	for _, pool := range registry.GetAll() {
		h.AddCheck(health.NewPoolCheck(pool))
	}
	return h
}

// newAdminServer creates the admin server serving metrics and health
// endpoints.
func newAdminServer(
	port int,
	metrics *observability.Metrics,
	healthHandler *health.Handler,
	logger observability.Logger,
) *gateway.Server {
	server := gateway.NewServer(gateway.ServerConfig{
		Name:           "admin",
		Address:        adminAddress(port),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}, logger)

	server.Use(middleware.Recovery(logger, nil))
	registerAdminRoutes(server.Engine(), metrics, healthHandler)

	return server
}

func registerAdminRoutes(engine *gin.Engine, metrics *observability.Metrics, healthHandler *health.Handler) {
	engine.GET(metricsPath, gin.WrapH(metrics.Handler()))
	healthHandler.RegisterRoutes(engine)
}
