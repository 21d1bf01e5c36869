package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/bazargw/internal/util"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is reports a match for util.ErrConfigInvalid.
func (e ValidationErrors) Is(target error) bool {
	return target == util.ErrConfigInvalid
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	if cfg == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&cfg.Server)
	v.validateBackends(FamilyCatalog, cfg.Backends.Catalog)
	v.validateBackends(FamilyOrder, cfg.Backends.Order)
	v.validateUpstream(&cfg.Upstream)
	v.validateLogging(&cfg.Logging)
	v.validateAdmin(cfg)
	v.validateTracing(&cfg.Tracing)
	v.validateRateLimit(&cfg.RateLimit)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(s *ServerConfig) {
	if err := util.ValidatePort(s.Port); err != nil {
		v.addError("server.port", err.Error())
	}
	if err := util.ValidateNonEmpty(s.Host, "host"); err != nil {
		v.addError("server.host", err.Error())
	}
	for path, d := range map[string]Duration{
		"server.readTimeout":     s.ReadTimeout,
		"server.writeTimeout":    s.WriteTimeout,
		"server.idleTimeout":     s.IdleTimeout,
		"server.shutdownTimeout": s.ShutdownTimeout,
	} {
		if err := util.ValidateDuration(d.Duration()); err != nil {
			v.addError(path, err.Error())
		}
	}
	if s.MaxRequestBodyBytes < 0 {
		v.addError("server.maxRequestBodyBytes", "must not be negative")
	}
}

func (v *Validator) validateBackends(family string, urls []string) {
	path := "backends." + family
	if len(urls) == 0 {
		v.addError(path, "at least one backend URL is required")
		return
	}
	for i, u := range urls {
		if err := util.ValidateURL(u); err != nil {
			v.addError(fmt.Sprintf("%s[%d]", path, i), err.Error())
		}
	}
}

func (v *Validator) validateUpstream(u *UpstreamConfig) {
	if err := util.ValidateDuration(u.Timeout.Duration()); err != nil {
		v.addError("upstream.timeout", err.Error())
	}
	if u.MaxIdleConnsPerHost < 0 {
		v.addError("upstream.maxIdleConnsPerHost", "must not be negative")
	}
}

func (v *Validator) validateLogging(l *LoggingConfig) {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		v.addError("logging.level", fmt.Sprintf("invalid log level %q", l.Level))
	}
	switch l.Format {
	case "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid log format %q", l.Format))
	}
	switch l.Output {
	case "stdout", "stderr":
	default:
		v.addError("logging.output", fmt.Sprintf("invalid log output %q", l.Output))
	}
}

func (v *Validator) validateAdmin(cfg *Config) {
	if err := util.ValidateNonNegativePort(cfg.Admin.Port); err != nil {
		v.addError("admin.port", err.Error())
		return
	}
	if cfg.Admin.Port != 0 && cfg.Admin.Port == cfg.Server.Port {
		v.addError("admin.port", "must differ from server.port")
	}
}

func (v *Validator) validateTracing(t *TracingConfig) {
	if err := util.ValidateRatio(t.SamplingRate); err != nil {
		v.addError("tracing.samplingRate", err.Error())
	}
	if t.Enabled && t.OTLPEndpoint == "" {
		v.addError("tracing.otlpEndpoint", "required when tracing is enabled")
	}
}

func (v *Validator) validateRateLimit(r *RateLimitConfig) {
	if r.RPS < 0 {
		v.addError("rateLimit.rps", "must not be negative")
	}
	if r.Burst < 0 {
		v.addError("rateLimit.burst", "must not be negative")
	}
	if r.ClientTTL < 0 {
		v.addError("rateLimit.clientTTL", "must not be negative")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
