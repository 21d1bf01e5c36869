package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/bazargw/internal/util"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantPath: "server.port"},
		{name: "empty host", mutate: func(c *Config) { c.Server.Host = " " }, wantPath: "server.host"},
		{name: "empty catalog", mutate: func(c *Config) { c.Backends.Catalog = nil }, wantPath: "backends.catalog"},
		{
			name:     "relative order url",
			mutate:   func(c *Config) { c.Backends.Order = []string{"order-service:8080"} },
			wantPath: "backends.order[0]",
		},
		{name: "negative timeout", mutate: func(c *Config) { c.Upstream.Timeout = -1 }, wantPath: "upstream.timeout"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantPath: "logging.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantPath: "logging.format"},
		{name: "admin clashes", mutate: func(c *Config) { c.Admin.Port = c.Server.Port }, wantPath: "admin.port"},
		{name: "admin disabled", mutate: func(c *Config) { c.Admin.Port = 0 }},
		{name: "sampling rate", mutate: func(c *Config) { c.Tracing.SamplingRate = 2 }, wantPath: "tracing.samplingRate"},
		{
			name:     "tracing without endpoint",
			mutate:   func(c *Config) { c.Tracing.Enabled = true },
			wantPath: "tracing.otlpEndpoint",
		},
		{name: "negative rps", mutate: func(c *Config) { c.RateLimit.RPS = -1 }, wantPath: "rateLimit.rps"},
		{
			name:     "negative client ttl",
			mutate:   func(c *Config) { c.RateLimit.ClientTTL = -1 },
			wantPath: "rateLimit.clientTTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			if tt.wantPath == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, util.ErrConfigInvalid))

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.wantPath, verrs[0].Path)
		})
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.Equal(t, "configuration is nil", err.Error())
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())

	errs := ValidationErrors{
		{Path: "server.port", Message: "bad"},
		{Message: "worse"},
	}
	assert.Equal(t, "2 validation errors:\n  1. server.port: bad\n  2. worse\n", errs.Error())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Backends: BackendsConfig{
			Catalog: []string{" http://a:1/ ", "", "http://b:2,http://c:3"},
			Order:   []string{"http://o:1"},
		},
		CORS: CORSConfig{AllowOrigins: []string{" https://shop.example ", " "}},
	}
	cfg.Normalize()

	assert.Equal(t, []string{"http://a:1", "http://b:2", "http://c:3"}, cfg.Backends.Catalog)
	assert.Equal(t, []string{"http://o:1"}, cfg.Backends.Order)
	assert.Equal(t, []string{"https://shop.example"}, cfg.CORS.AllowOrigins)
}
