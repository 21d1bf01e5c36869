package proxy

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for forwarding. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// NewMetrics creates proxy metrics registered with registerer. A nil
// registerer leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of requests forwarded to backends",
			},
			[]string{"family", "mode", "status"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "errors_total",
				Help:      "Total number of proxy errors",
			},
			[]string{"family", "error_type"},
		),
		backendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "proxy",
				Name:      "backend_duration_seconds",
				Help:      "Duration of backend proxy requests",
				Buckets: []float64{
					.001, .005, .01, .025,
					.05, .1, .25, .5,
					1, 2.5, 5, 10,
				},
			},
			[]string{"family"},
		),
	}
	return m
}

func (m *Metrics) recordResponse(family, mode string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(family, mode, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(family).Observe(d.Seconds())
}

func (m *Metrics) recordError(family, errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(family, errorType).Inc()
}
