package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// TestConfigValidate_Valid verifies that a fully valid config passes validation.
func TestConfigValidate_Valid(t *testing.T) {
	cfg := Config{
		ServiceName: "test-service",
		Version:     "1.0.0",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "stdout",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	err := cfg.Validate()
	if err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "missing service name",
			cfg:  Config{Version: "1.0.0"},
			want: ErrMissingServiceName,
		},
		{
			name: "unknown tracing exporter",
			cfg:  Config{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "jaeger"}},
			want: ErrInvalidTracingExporter,
		},
		{
			name: "unknown metrics exporter",
			cfg:  Config{ServiceName: "svc", Metrics: MetricsConfig{Enabled: true, Exporter: "badvalue"}},
			want: ErrInvalidMetricsExporter,
		},
		{
			name: "sample pct above range",
			cfg:  Config{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 1.5}},
			want: ErrInvalidSamplePct,
		},
		{
			name: "sample pct negative",
			cfg:  Config{ServiceName: "svc", Tracing: TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: -0.1}},
			want: ErrInvalidSamplePct,
		},
		{
			name: "unknown log level",
			cfg:  Config{ServiceName: "svc", Logging: LoggingConfig{Enabled: true, Level: "badlevel"}},
			want: ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfigValidate_DisabledSectionsIgnored(t *testing.T) {
	cfg := Config{
		ServiceName: "svc",
		Tracing:     TracingConfig{Exporter: "bogus", SamplePct: 7},
		Metrics:     MetricsConfig{Exporter: "bogus"},
		Logging:     LoggingConfig{Level: "bogus"},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil for disabled sections", err)
	}
}

// TestNewObserver_DisabledNoop verifies that all-disabled config returns no-op observer.
func TestNewObserver_DisabledNoop(t *testing.T) {
	cfg := Config{
		ServiceName: "test-service",
		Tracing:     TracingConfig{Enabled: false},
		Metrics:     MetricsConfig{Enabled: false},
		Logging:     LoggingConfig{Enabled: false},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if obs == nil {
		t.Fatal("expected non-nil observer")
	}
	// No-op observer should still be usable
	if obs.Tracer() == nil {
		t.Error("expected non-nil tracer (noop)")
	}
	if obs.Meter() == nil {
		t.Error("expected non-nil meter (noop)")
	}
}

// TestNewObserver_ReturnsTracerAndMeter verifies enabled config returns functional tracer/meter.
func TestNewObserver_ReturnsTracerAndMeter(t *testing.T) {
	cfg := Config{
		ServiceName: "test-service",
		Version:     "1.0.0",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "stdout",
		},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if obs.Tracer() == nil {
		t.Error("expected non-nil tracer")
	}
	if obs.Meter() == nil {
		t.Error("expected non-nil meter")
	}
}

// TestNewObserver_LoggerReturnsNonNil verifies logging enabled returns non-nil logger.
func TestNewObserver_LoggerReturnsNonNil(t *testing.T) {
	cfg := Config{
		ServiceName: "test-service",
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if obs.Logger() == nil {
		t.Error("expected non-nil logger")
	}
}

func TestNewObserver_LoggerUsesConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		ServiceName: "test-service",
		Logging:     LoggingConfig{Enabled: true, Level: "info", Writer: &buf},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	obs.Logger().Info(context.Background(), "hello")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("expected log line in writer, got %q", buf.String())
	}
}

// TestNewObserver_InvalidConfigReturnsError verifies that invalid config returns error.
func TestNewObserver_InvalidConfigReturnsError(t *testing.T) {
	cfg := Config{
		ServiceName: "", // Invalid
	}

	_, err := NewObserver(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
}

// TestObserver_ShutdownGracefully verifies shutdown doesn't panic.
func TestObserver_ShutdownGracefully(t *testing.T) {
	cfg := Config{
		ServiceName: "test-service",
		Tracing: TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Exporter: "stdout",
		},
	}

	obs, err := NewObserver(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Shutdown should not panic
	err = obs.Shutdown(context.Background())
	if err != nil {
		t.Errorf("expected no shutdown error, got: %v", err)
	}
}
