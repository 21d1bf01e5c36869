package gateway

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vyrodovalexey/bazargw/internal/backend"
	"github.com/vyrodovalexey/bazargw/internal/book"
	"github.com/vyrodovalexey/bazargw/internal/cache"
	"github.com/vyrodovalexey/bazargw/internal/config"
	"github.com/vyrodovalexey/bazargw/internal/middleware"
	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/proxy"
	"github.com/vyrodovalexey/bazargw/internal/router"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

// Route prefixes of the two service families. Forwarding keeps them.
const (
	CatalogPrefix = cache.DefaultCatalogPrefix
	OrderPrefix   = "/purchase"
)

// Fixed gateway endpoints and their route labels.
const (
	DescriptionPath  = "/"
	InvalidatePath   = "/cache/invalidate"
	RouteDescription = "description"
	RouteInvalidate  = "invalidate"
)

// CacheHeader marks responses served from the cache.
const CacheHeader = "X-Cache"

// Gateway owns the routing table, the backend pools and the response
// cache, and dispatches every inbound request.
type Gateway struct {
	registry  *backend.Registry
	router    *router.Router
	cache     cache.Cache
	forwarder *proxy.Forwarder
	logger    observability.Logger
	metrics   *Metrics
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option {
	return func(g *Gateway) {
		g.cache = c
	}
}

// WithForwarder sets the backend forwarder.
func WithForwarder(f *proxy.Forwarder) Option {
	return func(g *Gateway) {
		g.forwarder = f
	}
}

// WithMetrics sets the dispatch metrics.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a gateway over registry, which must hold the catalog and
// order pools.
func New(registry *backend.Registry, opts ...Option) (*Gateway, error) {
	if registry == nil {
		return nil, util.NewConfigError("backends", "backend registry is required")
	}

	g := &Gateway{
		registry: registry,
		router:   router.New(),
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = cache.NewMemoryCache(cache.WithLogger(g.logger))
	}
	if g.forwarder == nil {
		g.forwarder = proxy.New(proxy.WithLogger(g.logger))
	}

	routes := []router.Route{
		{Name: config.FamilyCatalog, Backend: config.FamilyCatalog, Prefix: CatalogPrefix},
		{Name: config.FamilyOrder, Backend: config.FamilyOrder, Prefix: OrderPrefix},
	}
	for _, route := range routes {
		if _, ok := registry.Get(route.Backend); !ok {
			return nil, util.NewConfigError("backends."+route.Backend, "backend pool is not registered")
		}
	}
	if err := g.router.LoadRoutes(routes); err != nil {
		return nil, err
	}

	return g, nil
}

// Cache returns the response cache.
func (g *Gateway) Cache() cache.Cache {
	return g.cache
}

// Registry returns the backend registry.
func (g *Gateway) Registry() *backend.Registry {
	return g.registry
}

// RegisterRoutes installs the gateway handlers on engine. Everything
// that is not a fixed endpoint goes through Dispatch.
func (g *Gateway) RegisterRoutes(engine *gin.Engine) {
	engine.GET(DescriptionPath, g.Describe)
	engine.POST(InvalidatePath, g.Invalidate)
	engine.NoRoute(g.Dispatch)
}

// ResolveRoute returns the route label of path, or "" when it matches no
// route.
func (g *Gateway) ResolveRoute(path string) string {
	switch path {
	case DescriptionPath:
		return RouteDescription
	case InvalidatePath:
		return RouteInvalidate
	}
	match, err := g.router.Match("", path)
	if err != nil {
		return ""
	}
	return match.Route.Name
}

// Describe serves the static service description.
func (g *Gateway) Describe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": MsgServiceDescription,
		"endpoints": gin.H{
			config.FamilyCatalog: CatalogPrefix + "/*",
			config.FamilyOrder:   OrderPrefix + "/*",
		},
	})
}

// Dispatch routes a request to its service family: cacheable catalog
// reads go through the cache, catalog writes are buffered and forwarded,
// and everything else is streamed. Unmatched paths get 404.
func (g *Gateway) Dispatch(c *gin.Context) {
	match, err := g.router.Match(c.Request.Method, c.Request.URL.Path)
	if err != nil {
		writeError(c, "", err)
		return
	}

	family := match.Route.Backend
	pool, ok := g.registry.Get(family)
	if !ok {
		writeError(c, family, proxy.ErrNoHost)
		return
	}

	ctx := util.ContextWithRoute(c.Request.Context(), match.Route.Name)
	c.Request = c.Request.WithContext(ctx)

	if family == config.FamilyCatalog {
		if kind := cache.Classify(c.Request.Method, c.Request.URL.Path, CatalogPrefix); kind != cache.KindNone {
			g.serveCacheable(c, pool, kind)
			return
		}
		if isWriteMethod(c.Request.Method) {
			g.forward(c, pool, outcomeWrite)
			return
		}
	}

	g.forward(c, pool, outcomeForward)
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// forward sends the request to the next host of pool without touching
// the cache.
func (g *Gateway) forward(c *gin.Context, pool *backend.Pool, outcome string) {
	family := pool.Name()
	host := g.selectHost(c, pool)
	g.metrics.recordDispatch(family, outcome)

	var err error
	if outcome == outcomeWrite {
		err = g.forwarder.ForwardWrite(c.Writer, c.Request, family, host)
	} else {
		err = g.forwarder.Forward(c.Writer, c.Request, family, host)
	}
	if err != nil {
		writeError(c, family, err)
	}
}

// serveCacheable answers a cache-eligible read from the cache, or fetches
// it from the next catalog host and caches the normalized projection of a
// 200 response. The caller always receives the raw upstream response.
func (g *Gateway) serveCacheable(c *gin.Context, pool *backend.Pool, kind cache.Kind) {
	ctx := c.Request.Context()
	family := pool.Name()
	key := cache.KeyFromRequest(c.Request)
	logger := g.logger.WithContext(ctx)

	if value, err := g.cache.Lookup(ctx, key); err == nil {
		g.metrics.recordDispatch(family, outcomeCacheHit)
		middleware.AddSpanEvent(c, "cache.hit", attribute.String("cache.key", key))
		logger.Debug("cache hit", observability.String("key", key))

		c.Header(CacheHeader, "HIT")
		c.JSON(http.StatusOK, value)
		return
	}

	g.metrics.recordDispatch(family, outcomeCacheMiss)
	logger.Debug("cache miss", observability.String("key", key))

	host := g.selectHost(c, pool)
	resp, err := g.forwarder.Fetch(c.Request.Context(), c.Request, family, host)
	if err != nil {
		writeError(c, family, err)
		return
	}

	if resp.StatusCode == http.StatusOK {
		g.storeNormalized(c.Request.Context(), key, kind, resp.Body)
	} else {
		g.metrics.recordUncacheable("status")
	}

	if err := resp.Relay(c.Writer); err != nil {
		logger.Debug("failed to relay upstream response", observability.Error(err))
	}
}

// storeNormalized caches the normalized projection of a 200 body. A body
// that does not parse, or has the wrong shape for kind, is not cached.
func (g *Gateway) storeNormalized(ctx context.Context, key string, kind cache.Kind, body []byte) {
	logger := g.logger.WithContext(ctx)

	doc, err := book.DecodeDocument(body)
	if err != nil {
		g.metrics.recordUncacheable("parse")
		logger.Debug("upstream payload not cacheable",
			observability.String("key", key),
			observability.Error(err),
		)
		return
	}

	var value cache.Value
	switch kind {
	case cache.KindInfo:
		summary, err := book.NormalizeObject(doc)
		if err != nil {
			g.metrics.recordUncacheable("shape")
			logger.Debug("upstream payload not cacheable",
				observability.String("key", key),
				observability.Error(err),
			)
			return
		}
		logPartial(logger, key, summary)
		value = cache.InfoValue(summary)
	case cache.KindSearch:
		list, err := book.NormalizeList(doc)
		if err != nil {
			g.metrics.recordUncacheable("shape")
			logger.Debug("upstream payload not cacheable",
				observability.String("key", key),
				observability.Error(err),
			)
			return
		}
		for _, summary := range list {
			logPartial(logger, key, summary)
		}
		value = cache.SearchValue(list)
	default:
		return
	}

	g.cache.Store(ctx, key, value)
}

func logPartial(logger observability.Logger, key string, s book.Summary) {
	if missing := s.MissingFields(); len(missing) > 0 {
		logger.Debug("caching partial book summary",
			observability.String("key", key),
			observability.Strings("missing", missing),
		)
	}
}

// selectHost advances the pool cursor and records the choice on the
// request context.
func (g *Gateway) selectHost(c *gin.Context, pool *backend.Pool) *backend.Host {
	host := pool.Select()
	if host != nil {
		ctx := util.ContextWithBackend(c.Request.Context(), host.URL())
		c.Request = c.Request.WithContext(ctx)
	}
	return host
}
