package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vyrodovalexey/bazargw/internal/backend"
	"github.com/vyrodovalexey/bazargw/internal/cache"
	"github.com/vyrodovalexey/bazargw/internal/config"
	"github.com/vyrodovalexey/bazargw/internal/gateway"
	"github.com/vyrodovalexey/bazargw/internal/health"
	"github.com/vyrodovalexey/bazargw/internal/middleware"
	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/proxy"
)

// application holds all application components.
type application struct {
	config      *config.Config
	logger      observability.Logger
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	registry    *backend.Registry
	connections *backend.ConnectionPool
	gateway     *gateway.Gateway
	server      *gateway.Server
	admin       *gateway.Server
	health      *health.Handler
	rateLimiter *middleware.RateLimiter
}

// newApplication wires every component from cfg.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("gateway")
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	reg := metrics.Registry()

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	registry := backend.NewRegistry(logger, backend.NewMetrics(reg))
	if err := registry.LoadFromConfig(cfg.Backends); err != nil {
		return nil, fmt.Errorf("failed to load backends: %w", err)
	}

	connections := backend.NewConnectionPool(backend.PoolConfigFromUpstream(cfg.Upstream))

	forwarder := proxy.New(
		proxy.WithLogger(logger),
		proxy.WithTransport(connections.Transport()),
		proxy.WithMetrics(proxy.NewMetrics(reg)),
		proxy.WithTimeout(cfg.Upstream.Timeout.Duration()),
	)

	responseCache := cache.NewMemoryCache(
		cache.WithLogger(logger),
		cache.WithMetrics(cache.NewMetrics(reg)),
		cache.WithCatalogPrefix(gateway.CatalogPrefix),
	)

	gw, err := gateway.New(registry,
		gateway.WithLogger(logger),
		gateway.WithCache(responseCache),
		gateway.WithForwarder(forwarder),
		gateway.WithMetrics(gateway.NewMetrics(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	server := gateway.NewServer(gateway.ServerConfig{
		Name:           "gateway",
		Address:        cfg.Server.Address(),
		ReadTimeout:    cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:   cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:    cfg.Server.IdleTimeout.Duration(),
		MaxHeaderBytes: 1 << 20,
	}, logger)

	rateLimiter := middleware.NewRateLimiterFromConfig(cfg.RateLimit, logger)
	if rateLimiter != nil {
		rateLimiter.StartAutoCleanup(middleware.DefaultCleanupInterval)
	}

	server.Use(buildMiddlewareChain(middlewareDeps{
		config:      cfg,
		logger:      logger,
		metrics:     metrics,
		mwMetrics:   middleware.NewMetrics(reg),
		rateLimiter: rateLimiter,
		resolve:     gw.ResolveRoute,
	})...)
	gw.RegisterRoutes(server.Engine())

	healthHandler := newHealthHandler(registry, logger)

	app := &application{
		config:      cfg,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		registry:    registry,
		connections: connections,
		gateway:     gw,
		server:      server,
		health:      healthHandler,
		rateLimiter: rateLimiter,
	}

	if cfg.Admin.Port > 0 {
		app.admin = newAdminServer(cfg.Admin.Port, metrics, healthHandler, logger)
	}

	logStartup(cfg, logger)
	return app, nil
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config) (*observability.Tracer, error) {
	return observability.NewTracer(observability.TracerConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Enabled:        cfg.Tracing.Enabled,
	})
}

// logStartup logs the listening address and the backend URLs of every
// family.
func logStartup(cfg *config.Config, logger observability.Logger) {
	fields := []observability.Field{
		observability.String("address", cfg.Server.Address()),
		observability.Strings(config.FamilyCatalog, cfg.Backends.Catalog),
		observability.Strings(config.FamilyOrder, cfg.Backends.Order),
		observability.Bool("rate_limit", cfg.RateLimit.Enabled()),
		observability.Bool("tracing", cfg.Tracing.Enabled),
	}
	if cfg.Admin.Port > 0 {
		fields = append(fields, observability.String("admin_address", adminAddress(cfg.Admin.Port)))
	}
	logger.Info("gateway configured", fields...)
}

func adminAddress(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}

// run serves the gateway and admin listeners until ctx is canceled or a
// listener fails, then shuts everything down.
func (a *application) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start(gctx)
	})
	if a.admin != nil {
		g.Go(func() error {
			return a.admin.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")
		return a.shutdown(a.config.Server.ShutdownTimeout.Duration())
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// shutdown stops the listeners, flushes traces and releases background
// resources.
func (a *application) shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	if err := a.server.Stop(ctx); err != nil {
		a.logger.Error("failed to stop gateway server gracefully", observability.Error(err))
		errs = append(errs, err)
	}

	if a.admin != nil {
		if err := a.admin.Stop(ctx); err != nil {
			a.logger.Error("failed to stop admin server gracefully", observability.Error(err))
			errs = append(errs, err)
		}
	}

	if err := a.tracer.Shutdown(ctx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
		errs = append(errs, err)
	}

	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	a.connections.CloseIdleConnections()

	a.logger.Info("gateway stopped")
	return errors.Join(errs...)
}
