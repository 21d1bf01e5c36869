package cache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/bazargw/internal/book"
	"github.com/vyrodovalexey/bazargw/internal/observability"
)

func summary(id int64, title string) book.Summary {
	return book.Summary{ID: &id, Title: &title}
}

func newTestMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	return NewMemoryCache(WithLogger(observability.NopLogger()))
}

func TestMemoryCache_StoreAndLookup(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()

	_, err := c.Lookup(ctx, "/books/info/42")
	assert.ErrorIs(t, err, ErrCacheMiss)

	c.Store(ctx, "/books/info/42", InfoValue(summary(42, "Dune")))

	v, err := c.Lookup(ctx, "/books/info/42")
	require.NoError(t, err)
	assert.Equal(t, KindInfo, v.Kind)
	assert.Equal(t, "Dune", *v.Summary.Title)

	// Keys are case-sensitive and include the query string.
	_, err = c.Lookup(ctx, "/Books/info/42")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Lookup(ctx, "/books/info/42?x=1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.Equal(t, int64(1), stats.Stores)
}

func TestMemoryCache_StoreOverwrites(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()

	c.Store(ctx, "/books/info/1", InfoValue(summary(1, "old")))
	c.Store(ctx, "/books/info/1", InfoValue(summary(1, "new")))

	v, err := c.Lookup(ctx, "/books/info/1")
	require.NoError(t, err)
	assert.Equal(t, "new", *v.Summary.Title)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_InvalidateRemovesInfoAndMatchingSearches(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()

	c.Store(ctx, "/books/info/42", InfoValue(summary(42, "Dune")))
	c.Store(ctx, "/books/info/42?fields=all", InfoValue(summary(42, "Dune")))
	c.Store(ctx, "/books/info/420", InfoValue(summary(420, "Other")))
	c.Store(ctx, "/books/search/foo", SearchValue([]book.Summary{summary(7, "A"), summary(42, "Dune")}))
	c.Store(ctx, "/books/search/bar", SearchValue([]book.Summary{summary(7, "A"), summary(8, "B")}))

	removed := c.Invalidate(ctx, "42")

	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"/books/info/420", "/books/search/bar"}, c.Keys())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Invalidations)
	assert.Equal(t, int64(3), stats.Removed)
}

func TestMemoryCache_InvalidateUnknownID(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()

	c.Store(ctx, "/books/search/bar", SearchValue([]book.Summary{summary(8, "B")}))

	assert.Zero(t, c.Invalidate(ctx, "42"))
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, NewMemoryCache().Invalidate(ctx, "42"))
}

func TestMemoryCache_InvalidateSkipsSearchEntriesWithoutIDs(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()

	untitled := "no id"
	c.Store(ctx, "/books/search/partial", SearchValue([]book.Summary{{Title: &untitled}}))

	assert.Zero(t, c.Invalidate(ctx, "42"))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_CustomCatalogPrefix(t *testing.T) {
	t.Parallel()

	c := NewMemoryCache(WithCatalogPrefix("/catalog"))
	ctx := context.Background()

	c.Store(ctx, "/catalog/info/5", InfoValue(summary(5, "x")))
	c.Store(ctx, "/books/info/5", InfoValue(summary(5, "x")))

	assert.Equal(t, 1, c.Invalidate(ctx, "5"))
	assert.Equal(t, []string{"/books/info/5"}, c.Keys())
}

func TestMemoryCache_LastWriteWinsUnderConcurrentMiss(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()
	const key = "/books/info/42"

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := c.Lookup(ctx, key); err == nil {
				return
			}
			// Every miss stores the same deterministic projection.
			c.Store(ctx, key, InfoValue(summary(42, "Dune")))
		}()
	}
	close(start)
	wg.Wait()

	v, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, InfoValue(summary(42, "Dune")), v)
	assert.Equal(t, 1, c.Len())
	assert.GreaterOrEqual(t, c.Stats().Stores, int64(1))
}

func TestMemoryCache_ConcurrentStoreAndInvalidate(t *testing.T) {
	t.Parallel()

	c := newTestMemoryCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Store(ctx, "/books/search/q", SearchValue([]book.Summary{summary(1, "a")}))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Invalidate(ctx, "1")
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 1)
}

func TestMemoryCache_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewMemoryCache(WithMetrics(m))
	ctx := context.Background()

	_, _ = c.Lookup(ctx, "/books/info/1")
	c.Store(ctx, "/books/info/1", InfoValue(summary(1, "a")))
	_, _ = c.Lookup(ctx, "/books/info/1")
	c.Invalidate(ctx, "1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.missesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.removedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.entries))

	count, err := testutil.GatherAndCount(reg, "gateway_cache_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryCache_LogsInvalidatedKeys(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	c := NewMemoryCache(WithLogger(observability.NewLoggerFromZap(zap.New(core))))
	ctx := context.Background()

	c.Store(ctx, "/books/info/9", InfoValue(summary(9, "x")))
	c.Invalidate(ctx, "9")

	entries := logs.FilterMessage("cache invalidated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "9", entries[0].ContextMap()["book_id"])
}

func TestValue_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(InfoValue(summary(42, "Dune")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"title":"Dune"}`, string(data))

	data, err = json.Marshal(SearchValue([]book.Summary{summary(1, "a"), summary(2, "b")}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"a"},{"id":2,"title":"b"}]`, string(data))

	data, err = json.Marshal(Value{Kind: KindSearch})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestValue_ContainsID(t *testing.T) {
	t.Parallel()

	search := SearchValue([]book.Summary{summary(1, "a"), summary(42, "b")})
	assert.True(t, search.ContainsID("42"))
	assert.False(t, search.ContainsID("4"))
	assert.False(t, InfoValue(summary(42, "b")).ContainsID("42"))
}

func TestSearchValue_Copies(t *testing.T) {
	t.Parallel()

	list := []book.Summary{summary(1, "a")}
	v := SearchValue(list)
	list[0] = summary(2, "b")
	assert.True(t, v.ContainsID("1"))
}
