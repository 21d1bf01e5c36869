package backend

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/bazargw/internal/config"
	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

func TestNewHost(t *testing.T) {
	t.Parallel()

	h, err := NewHost("http://catalog-1:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://catalog-1:8080", h.URL())
	assert.Equal(t, "catalog-1:8080", h.Target().Host)

	// Target returns a copy.
	h.Target().Host = "mutated"
	assert.Equal(t, "catalog-1:8080", h.Target().Host)

	_, err = NewHost("catalog-1:8080")
	assert.Error(t, err)
}

func TestHost_Connections(t *testing.T) {
	t.Parallel()

	h, err := NewHost("http://catalog-1:8080")
	require.NoError(t, err)

	h.IncrementConnections()
	h.IncrementConnections()
	h.DecrementConnections()
	assert.Equal(t, int64(1), h.Connections())
}

func TestNewPool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		family  string
		urls    []string
		wantErr bool
	}{
		{name: "valid", family: "catalog", urls: []string{"http://c1:8080", "http://c2:8080"}},
		{name: "empty list", family: "catalog", urls: nil, wantErr: true},
		{name: "no name", family: "", urls: []string{"http://c1:8080"}, wantErr: true},
		{name: "bad url", family: "order", urls: []string{"http://o1:8080", "o2:8080"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool, err := NewPool(tt.family, tt.urls)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, util.ErrConfigInvalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.family, pool.Name())
			assert.Equal(t, len(tt.urls), pool.Size())
		})
	}
}

func TestPool_SelectIsRoundRobin(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	pool, err := NewPool("catalog", []string{"http://c1:8080", "http://c2:8080", "http://c3:8080"},
		WithPoolMetrics(metrics),
		WithPoolLogger(observability.NopLogger()),
	)
	require.NoError(t, err)

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, pool.Select().URL())
	}
	assert.Equal(t, []string{"http://c1:8080", "http://c2:8080", "http://c3:8080", "http://c1:8080"}, got)

	hosts := pool.Hosts()
	assert.Equal(t, uint64(2), hosts[0].Selections())
	assert.Equal(t, uint64(1), hosts[1].Selections())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.selectionsTotal.WithLabelValues("catalog", "http://c1:8080")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.hosts.WithLabelValues("catalog")))
}

func TestPool_IndependentCursors(t *testing.T) {
	t.Parallel()

	catalog, err := NewPool("catalog", []string{"http://c1:8080", "http://c2:8080"})
	require.NoError(t, err)
	order, err := NewPool("order", []string{"http://o1:8080", "http://o2:8080"})
	require.NoError(t, err)

	assert.Equal(t, "http://c1:8080", catalog.Select().URL())
	assert.Equal(t, "http://o1:8080", order.Select().URL())
	assert.Equal(t, "http://o2:8080", order.Select().URL())
	assert.Equal(t, "http://o1:8080", order.Select().URL())
	assert.Equal(t, "http://c2:8080", catalog.Select().URL())
}

type fixedBalancer struct{ host *Host }

func (f fixedBalancer) Next() *Host { return f.host }

func TestPool_WithLoadBalancer(t *testing.T) {
	t.Parallel()

	pool, err := NewPool("order", []string{"http://o1:8080", "http://o2:8080"},
		WithLoadBalancer(fixedBalancer{}),
	)
	require.NoError(t, err)
	assert.Nil(t, pool.Select())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(nil, nil)
	err := registry.LoadFromConfig(config.BackendsConfig{
		Catalog: []string{"http://c1:8080", "http://c2:8080"},
		Order:   []string{"http://o1:8080"},
	})
	require.NoError(t, err)

	catalog, ok := registry.Get(config.FamilyCatalog)
	require.True(t, ok)
	assert.Equal(t, 2, catalog.Size())

	_, ok = registry.Get("inventory")
	assert.False(t, ok)

	all := registry.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "catalog", all[0].Name())
	assert.Equal(t, "order", all[1].Name())

	dup, err := NewPool("order", []string{"http://o9:8080"})
	require.NoError(t, err)
	assert.Error(t, registry.Register(dup))
}

func TestRegistry_LoadFromConfigEmptyPool(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(observability.NopLogger(), nil)
	err := registry.LoadFromConfig(config.BackendsConfig{
		Catalog: []string{"http://c1:8080"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order")
}
