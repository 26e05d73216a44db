package observe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonwraymond/cmdbridge/observe"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "example-service",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: false},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	}

	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	fmt.Println("Observer created successfully")
	// Output:
	// Observer created successfully
}

func ExampleNewObserver_validation() {
	// Missing service name triggers validation error
	cfg := observe.Config{
		ServiceName: "", // Empty - will fail validation
	}

	ctx := context.Background()
	_, err := observe.NewObserver(ctx, cfg)
	if errors.Is(err, observe.ErrMissingServiceName) {
		fmt.Println("Caught: missing service name")
	}
	// Output:
	// Caught: missing service name
}

func ExampleConfig_Validate() {
	// Valid configuration
	cfg := observe.Config{
		ServiceName: "my-service",
		Version:     "1.0.0",
		Tracing: observe.TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 0.5, // 50% sampling
		},
		Metrics: observe.MetricsConfig{
			Enabled:  true,
			Exporter: "prometheus",
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid:", err)
	} else {
		fmt.Println("Configuration is valid")
	}
	// Output:
	// Configuration is valid
}

func ExampleCommandMeta_SpanName() {
	meta := observe.CommandMeta{Name: "list_apis", Cacheable: true}
	fmt.Println(meta.SpanName())
	// Output:
	// invoke.list_apis
}

func ExampleRedactArgs() {
	args := map[string]any{
		"name":    "proxy",
		"api_key": "sk-live-123",
	}
	redacted := observe.RedactArgs(args)
	fmt.Println(redacted["name"], redacted["api_key"])
	fmt.Println(args["api_key"])
	// Output:
	// proxy [REDACTED]
	// sk-live-123
}

func ExampleNewLoggerWithWriter() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	ctx := context.Background()
	logger.Info(ctx, "application started", observe.Field{Key: "version", Value: "1.0.0"})

	// Output contains JSON with timestamp, level, msg, and version field
	fmt.Println("Logged message contains 'application started':", bytes.Contains(buf.Bytes(), []byte("application started")))
	// Output:
	// Logged message contains 'application started': true
}

func ExampleLogger_WithCommand() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	cmdLogger := logger.WithCommand(observe.CommandMeta{Name: "pull_model", Class: "very_long"})
	cmdLogger.Info(context.Background(), "download started")

	fmt.Println("Contains command:", bytes.Contains(buf.Bytes(), []byte(`"command":"pull_model"`)))
	fmt.Println("Contains command.class:", bytes.Contains(buf.Bytes(), []byte(`"command.class":"very_long"`)))
	// Output:
	// Contains command: true
	// Contains command.class: true
}

func ExampleMiddleware_Wrap() {
	ctx := context.Background()

	// Create observer with disabled exporters for example
	cfg := observe.Config{
		ServiceName: "example",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     observe.LoggingConfig{Enabled: false},
	}
	obs, _ := observe.NewObserver(ctx, cfg)
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	// Create middleware
	mw, _ := observe.MiddlewareFromObserver(obs)

	// Define execution function
	execFn := func(ctx context.Context, meta observe.CommandMeta, args map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"status":"success"}`), nil
	}

	// Wrap with observability
	wrapped := mw.Wrap(execFn)

	result, err := wrapped(ctx, observe.CommandMeta{Name: "get_status"}, nil)

	if err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Printf("Result: %s\n", result)
	}
	// Output:
	// Result: {"status":"success"}
}

func ExampleParseLogLevel() {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, s := range levels {
		level := observe.ParseLogLevel(s)
		fmt.Printf("%s -> %s\n", s, level)
	}
	// Output:
	// debug -> debug
	// info -> info
	// warn -> warn
	// error -> error
	// unknown -> info
}
