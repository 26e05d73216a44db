package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/cmdbridge/cache"
	"github.com/jonwraymond/cmdbridge/fallback"
	"github.com/jonwraymond/cmdbridge/observe"
	"github.com/jonwraymond/cmdbridge/resilience"
)

// Validation errors.
var (
	ErrInvalidPageURL = errors.New("config: page URL is invalid")
	ErrInvalidTimeout = errors.New("config: timeouts must be positive")
	ErrInvalidCache   = errors.New("config: cache settings must not be negative")
)

// EnvDevelopment turns debug mode on.
const EnvDevelopment = "development"

// Config holds every cmdbridge setting.
type Config struct {
	// FallbackURL is the explicit fallback base URL.
	FallbackURL string `env:"CMDBRIDGE_FALLBACK_URL"`

	// PageURL is the webview page location used to derive the fallback
	// base URL when FallbackURL is empty.
	PageURL string `env:"CMDBRIDGE_PAGE_URL"`

	Env      string `env:"CMDBRIDGE_ENV" envDefault:"production"`
	Debug    bool   `env:"CMDBRIDGE_DEBUG"`
	LogLevel string `env:"CMDBRIDGE_LOG_LEVEL" envDefault:"info"`

	// TokenSecret signs and verifies fallback bearer tokens. It may be a
	// secretref or contain ${VAR}.
	TokenSecret string `env:"CMDBRIDGE_TOKEN_SECRET"`

	AllowedOrigins []string `env:"CMDBRIDGE_ALLOWED_ORIGINS" envSeparator:","`

	Cache     CacheConfig
	Timeouts  TimeoutConfig
	Telemetry TelemetryConfig
}

// CacheConfig configures the invocation cache.
type CacheConfig struct {
	TTL        time.Duration `env:"CMDBRIDGE_CACHE_TTL" envDefault:"5s"`
	MaxEntries int           `env:"CMDBRIDGE_CACHE_MAX_ENTRIES" envDefault:"100"`
}

// TimeoutConfig holds the per-class timeout budgets.
type TimeoutConfig struct {
	Default  time.Duration `env:"CMDBRIDGE_TIMEOUT_DEFAULT" envDefault:"30s"`
	Long     time.Duration `env:"CMDBRIDGE_TIMEOUT_LONG" envDefault:"60s"`
	VeryLong time.Duration `env:"CMDBRIDGE_TIMEOUT_VERY_LONG" envDefault:"10m"`
}

// TelemetryConfig selects trace and metric exporters.
type TelemetryConfig struct {
	TracingExporter string  `env:"CMDBRIDGE_TRACING_EXPORTER" envDefault:"none"`
	MetricsExporter string  `env:"CMDBRIDGE_METRICS_EXPORTER" envDefault:"none"`
	SamplePct       float64 `env:"CMDBRIDGE_TRACE_SAMPLE_PCT" envDefault:"1"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, env.Options{}, os.LookupEnv)
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(ctx context.Context, environ map[string]string) (Config, error) {
	lookup := func(key string) (string, bool) {
		v, ok := environ[key]
		return v, ok
	}
	return load(ctx, env.Options{Environment: environ}, lookup)
}

func load(ctx context.Context, opts env.Options, lookup LookupFunc) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if cfg.TokenSecret != "" {
		secret, err := DefaultResolver(lookup).ResolveValue(ctx, cfg.TokenSecret)
		if err != nil {
			return Config{}, fmt.Errorf("config: CMDBRIDGE_TOKEN_SECRET: %w", err)
		}
		cfg.TokenSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.PageURL != "" {
		if _, err := url.Parse(c.PageURL); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPageURL, err)
		}
	}
	if c.Timeouts.Default <= 0 || c.Timeouts.Long <= 0 || c.Timeouts.VeryLong <= 0 {
		return ErrInvalidTimeout
	}
	if c.Cache.TTL < 0 || c.Cache.MaxEntries < 0 {
		return ErrInvalidCache
	}
	return nil
}

// DebugEnabled reports whether verbose per-call logging is on.
func (c Config) DebugEnabled() bool {
	return c.Debug || strings.EqualFold(c.Env, EnvDevelopment)
}

// EffectiveLogLevel is "debug" in debug mode and LogLevel otherwise.
func (c Config) EffectiveLogLevel() string {
	if c.DebugEnabled() {
		return "debug"
	}
	return c.LogLevel
}

// FallbackBaseURL resolves the fallback base URL. The boolean is false
// when the fallback path is disabled.
func (c Config) FallbackBaseURL() (string, bool) {
	var page *url.URL
	if c.PageURL != "" {
		page, _ = url.Parse(c.PageURL)
	}
	return fallback.ResolveBaseURL(c.FallbackURL, page)
}

// CachePolicy returns the configured cache policy.
func (c Config) CachePolicy() cache.Policy {
	return cache.Policy{TTL: c.Cache.TTL, MaxEntries: c.Cache.MaxEntries}
}

// TimeoutPolicy returns the configured timeout budgets.
func (c Config) TimeoutPolicy() resilience.TimeoutPolicy {
	return resilience.TimeoutPolicy{
		Default:  c.Timeouts.Default,
		Long:     c.Timeouts.Long,
		VeryLong: c.Timeouts.VeryLong,
	}
}

// ObserveConfig returns the telemetry configuration for serviceName.
func (c Config) ObserveConfig(serviceName, version string) observe.Config {
	tracing := c.Telemetry.TracingExporter
	metrics := c.Telemetry.MetricsExporter
	return observe.Config{
		ServiceName: serviceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   tracing != "" && tracing != "none",
			Exporter:  tracing,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  metrics != "" && metrics != "none",
			Exporter: metrics,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.EffectiveLogLevel(),
		},
	}
}
