package config

import (
	"net"
	"strconv"
	"time"

	"github.com/vyrodovalexey/bazargw/internal/util"
)

// Service family names.
const (
	FamilyCatalog = "catalog"
	FamilyOrder   = "order"
)

// Config is the complete gateway configuration. It is read once at startup
// and never mutated afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backends  BackendsConfig  `yaml:"backends"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Logging   LoggingConfig   `yaml:"logging"`
	Admin     AdminConfig     `yaml:"admin"`
	Tracing   TracingConfig   `yaml:"tracing"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig configures the inbound HTTP listener.
type ServerConfig struct {
	Host                string   `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port                int      `yaml:"port" env:"PORT" env-default:"3000"`
	ReadTimeout         Duration `yaml:"readTimeout" env:"READ_TIMEOUT" env-default:"30s"`
	WriteTimeout        Duration `yaml:"writeTimeout" env:"WRITE_TIMEOUT" env-default:"0s"`
	IdleTimeout         Duration `yaml:"idleTimeout" env:"IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout     Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	MaxRequestBodyBytes int64    `yaml:"maxRequestBodyBytes" env:"MAX_REQUEST_BODY_BYTES" env-default:"10485760"`
}

// Address returns the host:port the gateway listens on.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// BackendsConfig holds the base URLs of every instance of each service family.
// The plural variables take precedence over the singular ones.
type BackendsConfig struct {
	Catalog []string `yaml:"catalog" env:"CATALOG_SERVICE_URLS,CATALOG_SERVICE_URL" env-default:"http://catalog-service:8080"`
	Order   []string `yaml:"order" env:"ORDER_SERVICE_URLS,ORDER_SERVICE_URL" env-default:"http://order-service:8080"`
}

// URLs returns the configured URLs of the named family.
func (b BackendsConfig) URLs(family string) []string {
	switch family {
	case FamilyCatalog:
		return b.Catalog
	case FamilyOrder:
		return b.Order
	default:
		return nil
	}
}

// UpstreamConfig configures outbound calls to backend instances.
// A zero Timeout means requests to a hung backend are never cut off.
type UpstreamConfig struct {
	Timeout             Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"0s"`
	MaxIdleConnsPerHost int      `yaml:"maxIdleConnsPerHost" env:"UPSTREAM_MAX_IDLE_CONNS_PER_HOST" env-default:"10"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	Output string `yaml:"output" env:"LOG_OUTPUT" env-default:"stdout"`
}

// AdminConfig configures the metrics and health listener. Port 0 disables it.
type AdminConfig struct {
	Port int `yaml:"port" env:"ADMIN_PORT" env-default:"9090"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" env:"TRACING_ENABLED"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SamplingRate float64 `yaml:"samplingRate" env:"TRACING_SAMPLING_RATE" env-default:"1.0"`
	ServiceName  string  `yaml:"serviceName" env:"OTEL_SERVICE_NAME" env-default:"bazar-gateway"`
}

// RateLimitConfig configures the optional inbound rate limiter. RPS 0 disables it.
type RateLimitConfig struct {
	RPS       int      `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"0"`
	Burst     int      `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"0"`
	PerClient bool     `yaml:"perClient" env:"RATE_LIMIT_PER_CLIENT"`
	ClientTTL Duration `yaml:"clientTTL" env:"RATE_LIMIT_CLIENT_TTL" env-default:"10m"`
}

// Enabled reports whether rate limiting is active.
func (r RateLimitConfig) Enabled() bool {
	return r.RPS > 0
}

// EffectiveBurst returns Burst, falling back to RPS when unset.
func (r RateLimitConfig) EffectiveBurst() int {
	if r.Burst > 0 {
		return r.Burst
	}
	return r.RPS
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins" env:"CORS_ALLOW_ORIGINS" env-default:"*"`
}

// DefaultConfig returns a configuration populated with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                3000,
			ReadTimeout:         Duration(30 * time.Second),
			IdleTimeout:         Duration(120 * time.Second),
			ShutdownTimeout:     Duration(30 * time.Second),
			MaxRequestBodyBytes: 10 << 20,
		},
		Backends: BackendsConfig{
			Catalog: []string{"http://catalog-service:8080"},
			Order:   []string{"http://order-service:8080"},
		},
		Upstream: UpstreamConfig{
			MaxIdleConnsPerHost: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Admin: AdminConfig{Port: 9090},
		Tracing: TracingConfig{
			SamplingRate: 1.0,
			ServiceName:  "bazar-gateway",
		},
		RateLimit: RateLimitConfig{ClientTTL: Duration(10 * time.Minute)},
		CORS:      CORSConfig{AllowOrigins: []string{"*"}},
	}
}

// Normalize trims surrounding whitespace from every list entry and drops
// empty entries. Backend URLs additionally lose a trailing slash.
func (c *Config) Normalize() {
	c.Backends.Catalog = normalizeURLs(c.Backends.Catalog)
	c.Backends.Order = normalizeURLs(c.Backends.Order)
	c.CORS.AllowOrigins = normalizeList(c.CORS.AllowOrigins)
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, entry := range in {
		out = append(out, util.SplitList(entry)...)
	}
	return out
}

func normalizeURLs(in []string) []string {
	out := normalizeList(in)
	for i, u := range out {
		for len(u) > 0 && u[len(u)-1] == '/' {
			u = u[:len(u)-1]
		}
		out[i] = u
	}
	return out
}
