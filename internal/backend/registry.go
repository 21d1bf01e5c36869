package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vyrodovalexey/bazargw/internal/config"
	"github.com/vyrodovalexey/bazargw/internal/observability"
)

// Registry holds the backend pool of every service family. It is filled
// once at startup and only read afterwards.
type Registry struct {
	pools   map[string]*Pool
	mu      sync.RWMutex
	logger  observability.Logger
	metrics *Metrics
}

// NewRegistry creates a new backend registry. metrics may be nil.
func NewRegistry(logger observability.Logger, metrics *Metrics) *Registry {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Registry{
		pools:   make(map[string]*Pool),
		logger:  logger,
		metrics: metrics,
	}
}

// Register registers a pool.
func (r *Registry) Register(pool *Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := pool.Name()
	if _, exists := r.pools[name]; exists {
		return fmt.Errorf("backend pool already registered: %s", name)
	}

	r.pools[name] = pool
	r.logger.Info("registered backend pool",
		observability.String("family", name),
		observability.Int("hosts", pool.Size()),
	)

	return nil
}

// Get returns a pool by family name.
func (r *Registry) Get(name string) (*Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, exists := r.pools[name]
	return pool, exists
}

// GetAll returns all pools ordered by family name.
func (r *Registry) GetAll() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pools := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool { return pools[i].Name() < pools[j].Name() })
	return pools
}

// LoadFromConfig creates and registers the catalog and order pools.
func (r *Registry) LoadFromConfig(cfg config.BackendsConfig) error {
	for _, family := range []string{config.FamilyCatalog, config.FamilyOrder} {
		pool, err := NewPool(family, cfg.URLs(family),
			WithPoolLogger(r.logger),
			WithPoolMetrics(r.metrics),
		)
		if err != nil {
			return fmt.Errorf("failed to create backend pool %s: %w", family, err)
		}

		if err := r.Register(pool); err != nil {
			return err
		}
	}

	return nil
}
