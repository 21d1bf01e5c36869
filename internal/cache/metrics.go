package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for cache operations. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	hitsTotal          prometheus.Counter
	missesTotal        prometheus.Counter
	storesTotal        prometheus.Counter
	invalidationsTotal prometheus.Counter
	removedTotal       prometheus.Counter
	entries            prometheus.Gauge
	operationDuration  *prometheus.HistogramVec
}

// NewMetrics creates cache metrics registered with registerer. A nil
// registerer leaves the collectors unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		hitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits",
		}),
		missesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses",
		}),
		storesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "cache",
			Name:      "stores_total",
			Help:      "Total number of cache stores",
		}),
		invalidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Total number of invalidation requests",
		}),
		removedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "cache",
			Name:      "invalidated_entries_total",
			Help:      "Total number of entries removed by invalidation",
		}),
		entries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of cached entries",
		}),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "cache",
				Name:      "operation_duration_seconds",
				Help:      "Duration of cache operations",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) recordHit() {
	if m == nil {
		return
	}
	m.hitsTotal.Inc()
}

func (m *Metrics) recordMiss() {
	if m == nil {
		return
	}
	m.missesTotal.Inc()
}

func (m *Metrics) recordStore(size int) {
	if m == nil {
		return
	}
	m.storesTotal.Inc()
	m.entries.Set(float64(size))
}

func (m *Metrics) recordInvalidation(removed, size int) {
	if m == nil {
		return
	}
	m.invalidationsTotal.Inc()
	m.removedTotal.Add(float64(removed))
	m.entries.Set(float64(size))
}

func (m *Metrics) observe(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(op).Observe(d.Seconds())
}
