package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for backend pools. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	selectionsTotal *prometheus.CounterVec
	hosts           *prometheus.GaugeVec
}

// NewMetrics creates backend metrics registered with registerer. A nil
// registerer leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		selectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "backend",
				Name:      "selections_total",
				Help:      "Total number of round-robin selections per backend instance",
			},
			[]string{"family", "backend"},
		),
		hosts: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "backend",
				Name:      "hosts",
				Help:      "Number of configured instances per service family",
			},
			[]string{"family"},
		),
	}
}

func (m *Metrics) recordSelection(family, backend string) {
	if m == nil {
		return
	}
	m.selectionsTotal.WithLabelValues(family, backend).Inc()
}

func (m *Metrics) setHosts(family string, n int) {
	if m == nil {
		return
	}
	m.hosts.WithLabelValues(family).Set(float64(n))
}
