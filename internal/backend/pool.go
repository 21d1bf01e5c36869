package backend

import (
	"net"
	"net/http"
	"time"

	"github.com/vyrodovalexey/bazargw/internal/config"
)

// PoolConfig contains connection pool configuration.
type PoolConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	ResponseHeaderTimeout time.Duration
	ExpectContinueTimeout time.Duration
	DialTimeout           time.Duration
	DisableKeepAlives     bool
}

// DefaultPoolConfig returns default pool configuration. Response headers
// have no deadline; a hung backend holds the client request open.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       0,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 0,
		ExpectContinueTimeout: 1 * time.Second,
		DialTimeout:           30 * time.Second,
	}
}

// PoolConfigFromUpstream returns the default pool configuration with the
// per-host idle limit taken from cfg when set.
func PoolConfigFromUpstream(cfg config.UpstreamConfig) PoolConfig {
	pc := DefaultPoolConfig()
	if cfg.MaxIdleConnsPerHost > 0 {
		pc.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
		if pc.MaxIdleConns < pc.MaxIdleConnsPerHost {
			pc.MaxIdleConns = pc.MaxIdleConnsPerHost
		}
	}
	return pc
}

// ConnectionPool manages the outbound HTTP connections shared by every
// backend pool.
type ConnectionPool struct {
	transport *http.Transport
}

// NewConnectionPool creates a new connection pool.
func NewConnectionPool(config PoolConfig) *ConnectionPool {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		ExpectContinueTimeout: config.ExpectContinueTimeout,
		DisableKeepAlives:     config.DisableKeepAlives,
	}

	return &ConnectionPool{transport: transport}
}

// Transport returns the HTTP transport.
func (p *ConnectionPool) Transport() *http.Transport {
	return p.transport
}

// CloseIdleConnections closes idle connections.
func (p *ConnectionPool) CloseIdleConnections() {
	p.transport.CloseIdleConnections()
}

