package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcomes used as metric labels.
const (
	outcomeCacheHit  = "cache_hit"
	outcomeCacheMiss = "cache_miss"
	outcomeWrite     = "write"
	outcomeForward   = "forward"
)

// Metrics contains Prometheus metrics for request dispatch. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	dispatchTotal      *prometheus.CounterVec
	uncacheableTotal   *prometheus.CounterVec
	invalidationsTotal *prometheus.CounterVec
}

// NewMetrics creates dispatch metrics registered with registerer. A nil
// registerer leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		dispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "dispatch",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by family and outcome",
			},
			[]string{"family", "outcome"},
		),
		uncacheableTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "dispatch",
				Name:      "uncacheable_responses_total",
				Help:      "Total number of cacheable reads whose response was not stored",
			},
			[]string{"reason"},
		),
		invalidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "dispatch",
				Name:      "invalidation_requests_total",
				Help:      "Total number of invalidation requests by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) recordDispatch(family, outcome string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(family, outcome).Inc()
}

func (m *Metrics) recordUncacheable(reason string) {
	if m == nil {
		return
	}
	m.uncacheableTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) recordInvalidation(result string) {
	if m == nil {
		return
	}
	m.invalidationsTotal.WithLabelValues(result).Inc()
}
