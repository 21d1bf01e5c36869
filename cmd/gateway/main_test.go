package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/bazargw/internal/backend"
	"github.com/vyrodovalexey/bazargw/internal/config"
	"github.com/vyrodovalexey/bazargw/internal/observability"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("GATEWAY_CONFIG_PATH", "/etc/bazar/gateway.yaml")

	flags := parseFlags(nil)
	assert.Equal(t, "/etc/bazar/gateway.yaml", flags.configPath)
	assert.Empty(t, flags.logLevel)
	assert.Empty(t, flags.logFormat)
	assert.False(t, flags.showVersion)

	flags = parseFlags([]string{"-config", "local.yaml", "-log-level", "debug", "-log-format", "console", "-version"})
	assert.Equal(t, "local.yaml", flags.configPath)
	assert.Equal(t, "debug", flags.logLevel)
	assert.Equal(t, "console", flags.logFormat)
	assert.True(t, flags.showVersion)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("BAZARGW_TEST_SET", "value")
	t.Setenv("BAZARGW_TEST_EMPTY", "")

	assert.Equal(t, "value", getEnvOrDefault("BAZARGW_TEST_SET", "default"))
	assert.Equal(t, "default", getEnvOrDefault("BAZARGW_TEST_EMPTY", "default"))
	assert.Equal(t, "default", getEnvOrDefault("BAZARGW_TEST_UNSET", "default"))
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a", firstNonEmpty("", "a", "b"))
	assert.Empty(t, firstNonEmpty("", ""))
	assert.Empty(t, firstNonEmpty())
}

func fakeService(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	catalog := fakeService(t, `{"id":1,"bookName":"Dune","cost":9.5,"numberOfItems":3}`)
	order := fakeService(t, `{"message":"bought"}`)

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = config.Duration(5 * time.Second)
	cfg.Backends.Catalog = []string{catalog.URL}
	cfg.Backends.Order = []string{order.URL}
	cfg.Admin.Port = 0
	return cfg
}

func serve(engine *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w
}

func counterValue(t *testing.T, metrics *observability.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}

func TestNewApplication_ServesThroughMiddlewareChain(t *testing.T) {
	t.Parallel()

	app, err := newApplication(testConfig(t), observability.NopLogger())
	require.NoError(t, err)
	engine := app.server.Engine()

	miss := serve(engine, http.MethodGet, "/books/info/1", "")
	require.Equal(t, http.StatusOK, miss.Code)
	assert.NotEmpty(t, miss.Header().Get("X-Request-ID"))

	hit := serve(engine, http.MethodGet, "/books/info/1", "")
	require.Equal(t, http.StatusOK, hit.Code)
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"id":1,"title":"Dune","price":9.5,"quantity":3}`, hit.Body.String())

	order := serve(engine, http.MethodPost, "/purchase/1", "")
	assert.Equal(t, http.StatusOK, order.Code)

	invalidate := serve(engine, http.MethodPost, "/cache/invalidate", `{"bookId":1}`)
	assert.Equal(t, http.StatusOK, invalidate.Code)
	assert.JSONEq(t, `{"message":"Cache invalidated","bookId":1,"removed":1}`, invalidate.Body.String())

	missing := serve(engine, http.MethodGet, "/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	assert.Equal(t, 2.0, counterValue(t, app.metrics, "gateway_requests_total",
		map[string]string{"method": "GET", "route": "catalog", "status": "200"}))
	assert.Equal(t, 1.0, counterValue(t, app.metrics, "gateway_requests_total",
		map[string]string{"method": "GET", "route": "unmatched", "status": "404"}))
	assert.Equal(t, 1.0, counterValue(t, app.metrics, "gateway_dispatch_requests_total",
		map[string]string{"family": "catalog", "outcome": "cache_hit"}))
}

func TestNewApplication_RejectsInvalidBackends(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Backends.Order = nil

	_, err := newApplication(cfg, observability.NopLogger())
	require.Error(t, err)
}

func TestNewApplication_RateLimitEnabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.RateLimit = config.RateLimitConfig{RPS: 1, Burst: 1}

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	require.NotNil(t, app.rateLimiter)
	t.Cleanup(app.rateLimiter.Stop)

	engine := app.server.Engine()
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/", "").Code)
	limited := serve(engine, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"message":"Rate limit exceeded"}`, limited.Body.String())
}

func TestAdminRoutes(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("gateway")
	metrics.RecordRequest(http.MethodGet, "catalog", http.StatusOK, time.Millisecond, 0, 10)

	registry := backend.NewRegistry(nil, nil)
	require.NoError(t, registry.LoadFromConfig(config.BackendsConfig{
		Catalog: []string{"http://catalog:8080", "http://catalog-2:8080"},
		Order:   []string{"http://order:8080"},
	}))

	engine := gin.New()
	registerAdminRoutes(engine, metrics, newHealthHandler(registry, observability.NopLogger()))

	w := serve(engine, http.MethodGet, metricsPath, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gateway_requests_total")

	w = serve(engine, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backend:catalog")
	assert.Contains(t, w.Body.String(), "backend:order")
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	app, err := newApplication(testConfig(t), observability.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.run(ctx) }()

	require.Eventually(t, app.server.IsRunning, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
	assert.False(t, app.server.IsRunning())
}
