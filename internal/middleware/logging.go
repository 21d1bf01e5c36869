package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger    observability.Logger
	SkipPaths []string
}

// Logging returns a middleware that assigns a request ID and writes one
// access log entry per request.
func Logging(logger observability.Logger) gin.HandlerFunc {
	return LoggingWithConfig(LoggingConfig{Logger: logger})
}

// LoggingWithConfig returns a logging middleware with custom configuration.
func LoggingWithConfig(config LoggingConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		requestID := setRequestID(c)
		ctx := util.ContextWithStartTime(c.Request.Context(), start)
		c.Request = c.Request.WithContext(ctx)

		path := c.Request.URL.Path
		c.Next()

		if skipPaths[path] {
			return
		}

		status := c.Writer.Status()
		fields := buildLogFields(c, requestID, path, util.ElapsedTime(c.Request.Context()), status)
		logRequestByStatus(config.Logger, status, fields)
	}
}

// RequestID returns a middleware that only assigns a request ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		setRequestID(c)
		c.Next()
	}
}

// GetRequestID returns the request ID from the context.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if requestID, ok := id.(string); ok {
			return requestID
		}
	}
	return ""
}

// setRequestID reuses the inbound X-Request-ID or generates a new one,
// and echoes it on the response.
func setRequestID(c *gin.Context) string {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	c.Set(RequestIDKey, requestID)
	c.Header(RequestIDHeader, requestID)
	c.Request = c.Request.WithContext(util.ContextWithRequestID(c.Request.Context(), requestID))
	return requestID
}

func buildLogFields(
	c *gin.Context,
	requestID, path string,
	latency time.Duration,
	status int,
) []observability.Field {
	fields := []observability.Field{
		observability.String("request_id", requestID),
		observability.String("method", c.Request.Method),
		observability.String("path", path),
		observability.String("query", c.Request.URL.RawQuery),
		observability.Int("status", status),
		observability.Duration("latency", latency),
		observability.String("client_ip", c.ClientIP()),
		observability.String("user_agent", c.Request.UserAgent()),
		observability.Int("body_size", c.Writer.Size()),
	}

	if route := util.RouteFromContext(c.Request.Context()); route != "" {
		fields = append(fields, observability.String("route", route))
	}
	if backend := util.BackendFromContext(c.Request.Context()); backend != "" {
		fields = append(fields, observability.String("backend", backend))
	}
	if traceID := util.TraceIDFromContext(c.Request.Context()); traceID != "" {
		fields = append(fields, observability.String("trace_id", traceID))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, observability.String("errors", c.Errors.String()))
	}

	return fields
}

func logRequestByStatus(logger observability.Logger, status int, fields []observability.Field) {
	switch {
	case status >= 500:
		logger.Error("request completed", fields...)
	case status >= 400:
		logger.Warn("request completed", fields...)
	default:
		logger.Info("request completed", fields...)
	}
}
