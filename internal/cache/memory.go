package cache

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// cacheTracerName is the OpenTelemetry tracer name for cache operations.
const cacheTracerName = "bazargw/cache"

// MemoryCache is an unbounded in-memory cache living for the process
// lifetime. Entries never expire; they leave only through Invalidate.
type MemoryCache struct {
	logger        observability.Logger
	metrics       *Metrics
	catalogPrefix string

	mu    sync.RWMutex
	items map[string]Value

	hits          atomic.Int64
	misses        atomic.Int64
	stores        atomic.Int64
	invalidations atomic.Int64
	removed       atomic.Int64
}

// Option is a functional option for configuring a MemoryCache.
type Option func(*MemoryCache)

// WithLogger sets the logger for the cache.
func WithLogger(logger observability.Logger) Option {
	return func(c *MemoryCache) {
		c.logger = logger
	}
}

// WithMetrics sets the Prometheus metrics for the cache.
func WithMetrics(m *Metrics) Option {
	return func(c *MemoryCache) {
		c.metrics = m
	}
}

// WithCatalogPrefix sets the route prefix info keys are matched under.
func WithCatalogPrefix(prefix string) Option {
	return func(c *MemoryCache) {
		c.catalogPrefix = prefix
	}
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(opts ...Option) *MemoryCache {
	c := &MemoryCache{
		logger:        observability.NopLogger(),
		catalogPrefix: DefaultCatalogPrefix,
		items:         make(map[string]Value),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup retrieves a value from the cache.
func (c *MemoryCache) Lookup(ctx context.Context, key string) (Value, error) {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Lookup",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.backend", "memory"),
			attribute.String("cache.key", key),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		c.metrics.observe("lookup", time.Since(start))
	}()

	c.mu.RLock()
	value, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		c.metrics.recordMiss()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return Value{}, ErrCacheMiss
	}

	c.hits.Add(1)
	c.metrics.recordHit()
	span.SetAttributes(
		attribute.Bool("cache.hit", true),
		attribute.String("cache.kind", value.Kind.String()),
	)

	c.logger.Debug("cache hit",
		observability.String("key", key))

	return value, nil
}

// Store inserts or overwrites the entry for key. Two concurrent misses for
// the same key both store; the later write wins.
func (c *MemoryCache) Store(ctx context.Context, key string, value Value) {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Store",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.backend", "memory"),
			attribute.String("cache.key", key),
			attribute.String("cache.kind", value.Kind.String()),
		),
	)
	defer span.End()

	start := time.Now()

	c.mu.Lock()
	c.items[key] = value
	size := len(c.items)
	c.mu.Unlock()

	c.stores.Add(1)
	c.metrics.recordStore(size)
	c.metrics.observe("store", time.Since(start))

	c.logger.Debug("cache store",
		observability.String("key", key),
		observability.String("kind", value.Kind.String()))
}

// Invalidate removes the info entry of id (with or without a query
// string) and every search entry whose list contains a summary with that
// id. Matching keys are collected in one pass over the key set and deleted
// after the scan completes.
func (c *MemoryCache) Invalidate(ctx context.Context, id string) int {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Invalidate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.backend", "memory"),
			attribute.String("book.id", id),
		),
	)
	defer span.End()

	start := time.Now()

	c.mu.Lock()
	var doomed []string
	for key, value := range c.items {
		if InfoKeyMatches(key, c.catalogPrefix, id) || value.ContainsID(id) {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		delete(c.items, key)
	}
	size := len(c.items)
	c.mu.Unlock()

	c.invalidations.Add(1)
	c.removed.Add(int64(len(doomed)))
	c.metrics.recordInvalidation(len(doomed), size)
	c.metrics.observe("invalidate", time.Since(start))

	span.SetAttributes(attribute.Int("cache.removed", len(doomed)))

	sort.Strings(doomed)
	c.logger.Debug("cache invalidated",
		observability.String("book_id", id),
		observability.Strings("keys", doomed))

	return len(doomed)
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns the cached keys in lexical order.
func (c *MemoryCache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Entries:       c.Len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Stores:        c.stores.Load(),
		Invalidations: c.invalidations.Load(),
		Removed:       c.removed.Load(),
	}
}
