package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	Logger           observability.Logger
	Metrics          *Metrics
	EnableStackTrace bool
}

// Recovery returns a middleware that turns a handler panic into a 500.
func Recovery(logger observability.Logger, metrics *Metrics) gin.HandlerFunc {
	return RecoveryWithConfig(RecoveryConfig{
		Logger:           logger,
		Metrics:          metrics,
		EnableStackTrace: true,
	})
}

// RecoveryWithConfig returns a recovery middleware with custom configuration.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			// The proxy aborts a half-written response this way; let net/http
			// close the connection.
			if err == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
				panic(err)
			}

			fields := []observability.Field{
				observability.Any("error", err),
				observability.String("method", c.Request.Method),
				observability.String("path", c.Request.URL.Path),
				observability.String("client_ip", c.ClientIP()),
			}
			if requestID := GetRequestID(c); requestID != "" {
				fields = append(fields, observability.String("request_id", requestID))
			}
			if config.EnableStackTrace {
				fields = append(fields, observability.String("stack", string(debug.Stack())))
			}
			config.Logger.Error("panic recovered", fields...)
			config.Metrics.recordPanic()

			if span := GetSpan(c); span != nil {
				span.RecordError(fmt.Errorf("panic: %v", err))
				span.SetStatus(codes.Error, "panic")
			}

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": msgInternalError})
		}()

		c.Next()
	}
}
