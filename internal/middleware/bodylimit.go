package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// BodyLimit returns a middleware that limits the request body size. A
// declared Content-Length over the limit is rejected with 413 up front;
// otherwise the body is wrapped so reading past the limit fails. A
// non-positive maxSize disables the check.
func BodyLimit(maxSize int64, logger observability.Logger, metrics *Metrics) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		if maxSize <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			logger.Warn("request body too large",
				observability.Int64("content_length", c.Request.ContentLength),
				observability.Int64("max_size", maxSize),
				observability.String("path", c.Request.URL.Path),
			)
			metrics.recordBodyLimitRejected()
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": msgBodyTooLarge})
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		c.Next()
	}
}
