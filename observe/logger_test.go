package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, line)
	}
	return entry
}

// TestLogger_IncludesCommandFields verifies command fields are present in log output.
func TestLogger_IncludesCommandFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.WithCommand(CommandMeta{Name: "list_apis", Class: "default", Cacheable: true}).
		Info(context.Background(), "test message")

	entry := decodeLine(t, buf.String())
	if entry["command"] != "list_apis" {
		t.Errorf("command = %v, want list_apis", entry["command"])
	}
	if entry["command.class"] != "default" {
		t.Errorf("command.class = %v, want default", entry["command.class"])
	}
	if entry["command.cacheable"] != true {
		t.Errorf("command.cacheable = %v, want true", entry["command.cacheable"])
	}
	if entry["msg"] != "test message" || entry["level"] != "info" {
		t.Errorf("msg/level = %v/%v", entry["msg"], entry["level"])
	}
	if _, ok := entry["timestamp"].(string); !ok {
		t.Error("timestamp missing")
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		configured string
		log        func(Logger)
		wantLevel  string
		written    bool
	}{
		{"info", func(l Logger) { l.Info(context.Background(), "m") }, "info", true},
		{"info", func(l Logger) { l.Warn(context.Background(), "m") }, "warn", true},
		{"info", func(l Logger) { l.Error(context.Background(), "m") }, "error", true},
		{"info", func(l Logger) { l.Debug(context.Background(), "m") }, "", false},
		{"debug", func(l Logger) { l.Debug(context.Background(), "m") }, "debug", true},
		{"warn", func(l Logger) { l.Info(context.Background(), "m") }, "", false},
		{"ERROR", func(l Logger) { l.Warn(context.Background(), "m") }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.configured+"/"+tt.wantLevel, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLoggerWithWriter(tt.configured, &buf))

			if !tt.written {
				if buf.Len() != 0 {
					t.Errorf("expected entry to be filtered, got %s", buf.String())
				}
				return
			}
			if got := decodeLine(t, buf.String())["level"]; got != tt.wantLevel {
				t.Errorf("level = %v, want %s", got, tt.wantLevel)
			}
		})
	}
}

func TestLogger_Enabled(t *testing.T) {
	l := NewLoggerWithWriter("warn", &bytes.Buffer{})
	if l.Enabled(LevelInfo) {
		t.Error("info should be disabled at warn")
	}
	if !l.Enabled(LevelError) {
		t.Error("error should be enabled at warn")
	}
	if NopLogger().Enabled(LevelError) {
		t.Error("nop logger should report nothing enabled")
	}
}

// TestLogger_SensitiveFieldsRedacted verifies secrets never reach the output.
func TestLogger_SensitiveFieldsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "configured",
		Field{Key: "token", Value: "tok_123"},
		Field{Key: "Authorization", Value: "Bearer abc"},
		Field{Key: "api_key", Value: "sk-live"},
		Field{Key: "command", Value: "save_api"},
	)

	out := buf.String()
	for _, secret := range []string{"tok_123", "Bearer abc", "sk-live"} {
		if strings.Contains(out, secret) {
			t.Errorf("output leaks %q: %s", secret, out)
		}
	}
	entry := decodeLine(t, out)
	if entry["token"] != Redacted {
		t.Errorf("token = %v, want %s", entry["token"], Redacted)
	}
	if entry["command"] != "save_api" {
		t.Errorf("non-sensitive field altered: %v", entry["command"])
	}
}

func TestRedactArgs(t *testing.T) {
	args := map[string]any{
		"name":   "openai",
		"apiKey": "sk-1",
		"nested": map[string]any{"password": "p", "port": 8080},
		"list":   []any{map[string]any{"secret": "s"}, "plain"},
	}

	got := RedactArgs(args)

	if got["name"] != "openai" || got["apiKey"] != Redacted {
		t.Errorf("top level = %v", got)
	}
	nested := got["nested"].(map[string]any)
	if nested["password"] != Redacted || nested["port"] != 8080 {
		t.Errorf("nested = %v", nested)
	}
	list := got["list"].([]any)
	if list[0].(map[string]any)["secret"] != Redacted || list[1] != "plain" {
		t.Errorf("list = %v", list)
	}
	if args["apiKey"] != "sk-1" || args["nested"].(map[string]any)["password"] != "p" {
		t.Error("RedactArgs must not modify its input")
	}
	if RedactArgs(nil) != nil {
		t.Error("RedactArgs(nil) should be nil")
	}
}

// TestLogger_ConcurrentChildren verifies child loggers share one lock, so
// lines never interleave.
func TestLogger_ConcurrentChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			child := logger.WithCommand(CommandMeta{Name: "c"})
			child.Info(context.Background(), "line", Field{Key: "i", Value: i})
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		decodeLine(t, line)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug": LevelDebug,
		"INFO":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"bogus": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
