package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordRequest(http.MethodGet, "catalog", http.StatusOK, 10*time.Millisecond, 0, 512)
	m.RecordRequest(http.MethodGet, "catalog", http.StatusOK, 20*time.Millisecond, -1, 256)
	m.RecordRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond, 0, 40)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "catalog", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", UnmatchedRoute, "404")))
}

func TestMetrics_ActiveRequestsAndRateLimit(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.IncrementActiveRequests()
	m.IncrementActiveRequests()
	m.DecrementActiveRequests()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeRequests))

	m.RecordRateLimitHit("order")
	m.RecordRateLimitHit("")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues("order")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues(UnmatchedRoute)))
}

func TestMetrics_HandlerExposesRegisteredCollectors(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.SetBuildInfo("1.0.0", "abc123", "2024-01-01")

	extra := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_extra_total", Help: "extra"})
	m.MustRegisterCollector(extra)
	extra.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "test_build_info")
	assert.Contains(t, body, "test_extra_total 1")
	assert.Contains(t, body, "go_goroutines")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
