// Package middleware provides the gin middleware chain of the gateway.
//
//   - Logging: request ID assignment and one access log entry per request
//   - Recovery: panic recovery with a JSON 500
//   - Tracing: OpenTelemetry server span per request
//   - CORS: Cross-Origin Resource Sharing headers and preflight answers
//   - RateLimit: optional token bucket limiter, global or per client IP
//   - BodyLimit: request body size limiting
//   - Route, RequestMetrics: route labelling and Prometheus request metrics
//
// Typical order, outermost first:
//
//	engine.Use(
//	    middleware.Logging(logger),
//	    middleware.Route(resolve),
//	    middleware.Tracing(serviceName),
//	    middleware.Recovery(logger, mwMetrics),
//	    middleware.RequestMetrics(metrics),
//	    middleware.CORS(origins),
//	    middleware.RateLimit(limiter, metrics),
//	    middleware.BodyLimit(maxBytes, logger, mwMetrics),
//	)
package middleware
