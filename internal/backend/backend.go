// Package backend provides backend pool management for the Bazar gateway.
package backend

import (
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/vyrodovalexey/bazargw/internal/observability"
	"github.com/vyrodovalexey/bazargw/internal/util"
)

// Host represents a single backend instance identified by its base URL.
type Host struct {
	raw         string
	target      *url.URL
	selections  atomic.Uint64
	connections atomic.Int64
}

// NewHost parses rawURL and creates a new host.
func NewHost(rawURL string) (*Host, error) {
	if err := util.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", rawURL, err)
	}
	return &Host{raw: rawURL, target: target}, nil
}

// URL returns the base URL as configured.
func (h *Host) URL() string {
	return h.raw
}

// Target returns a copy of the parsed base URL.
func (h *Host) Target() *url.URL {
	u := *h.target
	return &u
}

// Selections returns how many times the host has been selected.
func (h *Host) Selections() uint64 {
	return h.selections.Load()
}

// Connections returns the current in-flight request count.
func (h *Host) Connections() int64 {
	return h.connections.Load()
}

// IncrementConnections increments the in-flight request count.
func (h *Host) IncrementConnections() {
	h.connections.Add(1)
}

// DecrementConnections decrements the in-flight request count.
func (h *Host) DecrementConnections() {
	h.connections.Add(-1)
}

// Pool is the ordered, immutable set of instances serving one service
// family. Each pool owns its own round-robin cursor.
type Pool struct {
	name     string
	hosts    []*Host
	balancer LoadBalancer
	logger   observability.Logger
	metrics  *Metrics
}

// PoolOption is a functional option for configuring a pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger for the pool.
func WithPoolLogger(logger observability.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithPoolMetrics sets the metrics the pool reports selections to.
func WithPoolMetrics(m *Metrics) PoolOption {
	return func(p *Pool) {
		p.metrics = m
	}
}

// WithLoadBalancer overrides the default round-robin balancer.
func WithLoadBalancer(lb LoadBalancer) PoolOption {
	return func(p *Pool) {
		p.balancer = lb
	}
}

// NewPool creates the pool for the named family. An empty URL list is a
// configuration error.
func NewPool(name string, urls []string, opts ...PoolOption) (*Pool, error) {
	if name == "" {
		return nil, util.NewConfigError("backends", "pool name is required")
	}
	if len(urls) == 0 {
		return nil, util.NewConfigError("backends."+name, "at least one backend URL is required")
	}

	p := &Pool{
		name:   name,
		hosts:  make([]*Host, 0, len(urls)),
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	for _, raw := range urls {
		host, err := NewHost(raw)
		if err != nil {
			return nil, util.NewConfigErrorWithCause("backends."+name, err.Error(), err)
		}
		p.hosts = append(p.hosts, host)
	}

	if p.balancer == nil {
		p.balancer = NewRoundRobinBalancer(p.hosts)
	}

	p.metrics.setHosts(p.name, len(p.hosts))

	return p, nil
}

// Name returns the service family name.
func (p *Pool) Name() string {
	return p.name
}

// Hosts returns the pool members in configured order.
func (p *Pool) Hosts() []*Host {
	out := make([]*Host, len(p.hosts))
	copy(out, p.hosts)
	return out
}

// Size returns the number of instances in the pool.
func (p *Pool) Size() int {
	return len(p.hosts)
}

// Select returns the next instance in round-robin order and advances the
// pool's cursor.
func (p *Pool) Select() *Host {
	host := p.balancer.Next()
	if host == nil {
		return nil
	}
	host.selections.Add(1)
	p.metrics.recordSelection(p.name, host.URL())
	p.logger.Debug("backend selected",
		observability.String("family", p.name),
		observability.String("backend", host.URL()),
	)
	return host
}
