package main

import (
	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/bazargw/internal/config"
	"github.com/vyrodovalexey/bazargw/internal/middleware"
	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// middlewareDeps holds what the middleware chain needs.
type middlewareDeps struct {
	config      *config.Config
	logger      observability.Logger
	metrics     *observability.Metrics
	mwMetrics   *middleware.Metrics
	rateLimiter *middleware.RateLimiter
	resolve     middleware.RouteResolver
}

// buildMiddlewareChain builds the middleware chain.
// The execution order (outermost executes first):
// Logging -> Route -> Tracing -> Recovery -> RequestMetrics -> CORS ->
// RateLimit -> BodyLimit -> [gateway]
//
// Logging is outermost so panics answered by Recovery still get an access
// log line, and Route runs before Tracing so spans and metrics share the
// bounded route label.
func buildMiddlewareChain(deps middlewareDeps) []gin.HandlerFunc {
	cfg := deps.config

	return []gin.HandlerFunc{
		middleware.Logging(deps.logger),
		middleware.Route(deps.resolve),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
		}),
		middleware.Recovery(deps.logger, deps.mwMetrics),
		middleware.RequestMetrics(deps.metrics),
		middleware.CORS(cfg.CORS.AllowOrigins),
		middleware.RateLimit(deps.rateLimiter, deps.metrics),
		middleware.BodyLimit(cfg.Server.MaxRequestBodyBytes, deps.logger, deps.mwMetrics),
	}
}
