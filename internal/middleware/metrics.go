package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

// Metrics holds Prometheus metrics for middleware operations. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	panicsRecovered   prometheus.Counter
	bodyLimitRejected prometheus.Counter
}

// NewMetrics creates middleware metrics registered with registerer. A nil
// registerer leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		panicsRecovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "middleware",
			Name:      "panics_recovered_total",
			Help:      "Total number of recovered handler panics",
		}),
		bodyLimitRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "middleware",
			Name:      "body_limit_rejected_total",
			Help:      "Total number of requests rejected for exceeding the body size limit",
		}),
	}
}

func (m *Metrics) recordPanic() {
	if m == nil {
		return
	}
	m.panicsRecovered.Inc()
}

func (m *Metrics) recordBodyLimitRejected() {
	if m == nil {
		return
	}
	m.bodyLimitRejected.Inc()
}

// RouteResolver maps a request path to a bounded route label, or "" when
// the path matches no route.
type RouteResolver func(path string) string

// Route stores the resolved route label in the request context so later
// middleware can label logs, spans and metrics with it.
func Route(resolve RouteResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if resolve != nil {
			if route := resolve(c.Request.URL.Path); route != "" {
				c.Request = c.Request.WithContext(util.ContextWithRoute(c.Request.Context(), route))
			}
		}
		c.Next()
	}
}

// RequestMetrics returns a middleware that records inbound request
// metrics. A nil m disables it.
func RequestMetrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		m.IncrementActiveRequests()
		defer m.DecrementActiveRequests()

		c.Next()

		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		m.RecordRequest(
			c.Request.Method,
			util.RouteFromContext(c.Request.Context()),
			c.Writer.Status(),
			time.Since(start),
			c.Request.ContentLength,
			int64(size),
		)
	}
}
