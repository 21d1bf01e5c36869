package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/bazargw/internal/observability"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakePool struct {
	name string
	size int
}

func (p fakePool) Name() string { return p.name }
func (p fakePool) Size() int    { return p.size }

func newEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	h.RegisterRoutes(engine)
	return engine
}

func get(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, HealthStatus) {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return w, status
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)
	h.AddCheck(NewHealthCheckFunc("broken", func(context.Context) error { return errors.New("down") }))
	engine := newEngine(h)

	for _, path := range []string{"/healthz", "/livez"} {
		w, status := get(t, engine, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, StatusOK, status.Status, path)
	}
}

func TestReadiness_ReportsPools(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil)
	h.AddCheck(NewPoolCheck(fakePool{name: "catalog", size: 2}))
	h.AddCheck(NewPoolCheck(fakePool{name: "order", size: 1}))
	engine := newEngine(h)

	for _, path := range []string{"/ready", "/readyz"} {
		w, status := get(t, engine, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, StatusOK, status.Status)
		require.Contains(t, status.Checks, "backend:catalog")
		assert.Equal(t, 2.0, status.Checks["backend:catalog"].Details["hosts"])
		assert.Equal(t, 1.0, status.Checks["backend:order"].Details["hosts"])
	}
	assert.Equal(t, []string{"backend:catalog", "backend:order"}, h.Checks())
}

func TestReadiness_FailingCheck(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	h := NewHandler(observability.NewLoggerFromZap(zap.New(core)))
	h.AddCheck(NewPoolCheck(fakePool{name: "order", size: 0}))
	engine := newEngine(h)

	w, status := get(t, engine, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, StatusError, status.Status)
	assert.Equal(t, ErrNoHosts.Error(), status.Checks["backend:order"].Error)
	assert.Equal(t, 1, logs.FilterMessage("health check failed").Len())
}

func TestHealth_IncludesVersionAndUptime(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, WithVersion("1.2.3"), WithTimeouts(0, 0))
	h.AddCheck(NewPoolCheck(fakePool{name: "catalog", size: 1}))
	engine := newEngine(h)

	w, status := get(t, engine, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.2.3", status.Version)
	assert.NotEmpty(t, status.Uptime)
	assert.Len(t, status.Checks, 1)
}
