package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/cmdbridge/config"
	"github.com/jonwraymond/cmdbridge/errclass"
	"github.com/jonwraymond/cmdbridge/fallback"
	"github.com/jonwraymond/cmdbridge/health"
	"github.com/jonwraymond/cmdbridge/invoke"
	"github.com/jonwraymond/cmdbridge/observe"
)

func run(t *testing.T, environ map[string]string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	if environ == nil {
		environ = map[string]string{}
	}
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut, environ)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// newTestApp returns an app configured from environ without telemetry.
func newTestApp(t *testing.T, environ map[string]string) *app {
	t.Helper()
	cfg, err := config.LoadFrom(context.Background(), environ)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	return &app{
		environ: environ,
		cfg:     cfg,
		logger:  observe.NopLogger(),
		stdout:  io.Discard,
		stderr:  io.Discard,
	}
}

func newReferenceServer(t *testing.T, environ map[string]string) *httptest.Server {
	t.Helper()
	h, err := newTestApp(t, environ).newServeHandler()
	if err != nil {
		t.Fatalf("newServeHandler() error = %v", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestInvokeCommand_Success(t *testing.T) {
	srv := newReferenceServer(t, map[string]string{})

	stdout, _, err := run(t, nil, "invoke", "--url", srv.URL, "ping")
	if err != nil {
		t.Fatalf("invoke error = %v", err)
	}
	if strings.TrimSpace(stdout) != `"pong"` {
		t.Errorf("stdout = %q, want \"pong\"", stdout)
	}
}

func TestInvokeCommand_FallbackURLFromEnv(t *testing.T) {
	srv := newReferenceServer(t, map[string]string{})

	stdout, _, err := run(t, map[string]string{"CMDBRIDGE_FALLBACK_URL": srv.URL}, "invoke", "version", "{}")
	if err != nil {
		t.Fatalf("invoke error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %q", stdout)
	}
	if got["version"] != Version {
		t.Errorf("version = %q, want %q", got["version"], Version)
	}
}

func TestInvokeCommand_ClassifiedFailure(t *testing.T) {
	fs := fallback.NewServer()
	if err := fs.Register("start_proxy", func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("Port 8080 is already in use")
	}); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(fs.Handler())
	defer srv.Close()

	tests := []struct {
		name         string
		command      string
		wantCategory string
	}{
		{"backend failure", "start_proxy", `"category": "API"`},
		{"unknown command", "delete_everything", `"category": "GENERAL"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := run(t, nil, "invoke", "--url", srv.URL, tt.command, `{"port":8080}`)

			var ce *errclass.Error
			if !errors.As(err, &ce) {
				t.Fatalf("error = %v, want *errclass.Error", err)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want empty", stdout)
			}
			for _, want := range []string{tt.wantCategory, `"suggestion":`, `"retryable": false`} {
				if !strings.Contains(stderr, want) {
					t.Errorf("stderr missing %s:\n%s", want, stderr)
				}
			}
		})
	}
}

func TestNewInvoker_CachePolicyFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		environ   map[string]string
		wantCalls int32
	}{
		{"default ttl", map[string]string{}, 1},
		{"caching disabled", map[string]string{"CMDBRIDGE_CACHE_TTL": "0s"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			fs := fallback.NewServer()
			if err := fs.Register("list_models", func(context.Context, map[string]any) (any, error) {
				calls.Add(1)
				return []string{"llama3"}, nil
			}); err != nil {
				t.Fatal(err)
			}
			srv := httptest.NewServer(fs.Handler())
			defer srv.Close()

			a := newTestApp(t, tt.environ)
			client, err := a.fallbackClient(srv.URL)
			if err != nil {
				t.Fatalf("fallbackClient() error = %v", err)
			}
			inv, err := a.newInvoker(client, invoke.Classification{Cacheable: []string{"list_models"}}, nil)
			if err != nil {
				t.Fatalf("newInvoker() error = %v", err)
			}

			for i := 0; i < 2; i++ {
				got, err := inv.Invoke(context.Background(), "list_models", nil)
				if err != nil {
					t.Fatalf("Invoke() error = %v", err)
				}
				if string(got) != `["llama3"]` {
					t.Errorf("result = %s", got)
				}
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("backend calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestInvokeCommand_CacheableFlag(t *testing.T) {
	srv := newReferenceServer(t, map[string]string{})

	stdout, _, err := run(t, nil, "invoke", "--url", srv.URL, "--cacheable", "ping")
	if err != nil {
		t.Fatalf("invoke error = %v", err)
	}
	if strings.TrimSpace(stdout) != `"pong"` {
		t.Errorf("stdout = %q, want \"pong\"", stdout)
	}
}

func TestInvokeCommand_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"args not an object", []string{"invoke", "--url", "http://127.0.0.1:1", "ping", `[1,2]`}, ErrInvalidArgs},
		{"args not JSON", []string{"invoke", "--url", "http://127.0.0.1:1", "ping", `{`}, ErrInvalidArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, nil, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown class", func(t *testing.T) {
		_, _, err := run(t, nil, "invoke", "--class", "forever", "ping")
		if err == nil || !strings.Contains(err.Error(), "unknown class") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("missing command", func(t *testing.T) {
		if _, _, err := run(t, nil, "invoke"); err == nil {
			t.Error("expected argument error")
		}
	})
}

func TestInvokeCommand_SignedRequests(t *testing.T) {
	environ := map[string]string{"CMDBRIDGE_TOKEN_SECRET": "shared-secret"}
	srv := newReferenceServer(t, environ)

	t.Run("with the shared secret", func(t *testing.T) {
		stdout, _, err := run(t, environ, "invoke", "--url", srv.URL, "ping")
		if err != nil {
			t.Fatalf("invoke error = %v", err)
		}
		if strings.TrimSpace(stdout) != `"pong"` {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("without a token", func(t *testing.T) {
		_, stderr, err := run(t, nil, "invoke", "--url", srv.URL, "ping")
		if errclass.CategoryOf(err) != errclass.CategoryPermission {
			t.Errorf("category = %v, err = %v", errclass.CategoryOf(err), err)
		}
		if !strings.Contains(stderr, `"category": "PERMISSION"`) {
			t.Errorf("stderr = %s", stderr)
		}
	})
}

func TestInvokeCommand_DebugLogFile(t *testing.T) {
	srv := newReferenceServer(t, map[string]string{})
	logPath := filepath.Join(t.TempDir(), "cmdbridge.log")

	_, stderr, err := run(t, nil, "invoke", "--debug", "--log-file", logPath, "--url", srv.URL, "ping", `{"api_key":"sk-live"}`)
	if err != nil {
		t.Fatalf("invoke error = %v", err)
	}
	if stderr != "" {
		t.Errorf("logs leaked to stderr: %s", stderr)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	logs := string(data)
	if !strings.Contains(logs, `"msg":"invoking command"`) {
		t.Errorf("log file missing debug line:\n%s", logs)
	}
	if strings.Contains(logs, "sk-live") {
		t.Error("secret argument written to the log file")
	}
}

func TestServeHandler(t *testing.T) {
	srv := newReferenceServer(t, map[string]string{})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"ping", http.MethodPost, "/invoke", `{"cmd":"ping","args":null}`, http.StatusOK, `{"result":"pong"}`},
		{"unknown command", http.MethodPost, "/invoke", `{"cmd":"nope"}`, http.StatusOK, `"code":"not_implemented"`},
		{"liveness", http.MethodGet, "/healthz", "", http.StatusOK, ""},
		{"readiness", http.MethodGet, "/readyz", "", http.StatusOK, ""},
		{"detailed health", http.MethodGet, "/health", "", http.StatusOK, `"2 commands registered"`},
		{"single check", http.MethodGet, "/health/commands", "", http.StatusOK, `"status":"healthy"`},
		{"missing check", http.MethodGet, "/health/nope", "", http.StatusNotFound, ""},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantBody != "" && !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body = %s, want it to contain %s", body, tt.wantBody)
			}
		})
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	a := newTestApp(t, map[string]string{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	client, err := fallback.NewClient("http://" + ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := client.Ping(context.Background()); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("server never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(shutdownTimeout):
		t.Fatal("server did not shut down")
	}
}

func TestHealthCommand(t *testing.T) {
	srv := newReferenceServer(t, map[string]string{})

	t.Run("fallback reachable", func(t *testing.T) {
		stdout, _, err := run(t, nil, "health", "--url", srv.URL)
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		var report health.HealthResponse
		if err := json.Unmarshal([]byte(stdout), &report); err != nil {
			t.Fatalf("stdout is not a health report: %q", stdout)
		}
		if report.Status != "degraded" {
			t.Errorf("status = %q, want degraded", report.Status)
		}
		if report.Checks["fallback"].Status != "healthy" || report.Checks["bridge"].Status != "degraded" {
			t.Errorf("checks = %+v", report.Checks)
		}
	})

	t.Run("fallback down", func(t *testing.T) {
		down := httptest.NewServer(http.NotFoundHandler())
		url := down.URL
		down.Close()

		stdout, _, err := run(t, nil, "health", "--url", url, "--timeout", "2s")
		if !errors.Is(err, errUnhealthy) {
			t.Errorf("error = %v, want errUnhealthy", err)
		}
		if !strings.Contains(stdout, `"status": "unhealthy"`) {
			t.Errorf("stdout = %s", stdout)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		class   string
		long    int
		veryLng int
		wantErr bool
	}{
		{"", 0, 0, false},
		{"default", 0, 0, false},
		{"long", 1, 0, false},
		{"very_long", 0, 1, false},
		{"eternal", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			c, err := classify("pull_model", tt.class)
			if (err != nil) != tt.wantErr {
				t.Fatalf("classify() error = %v", err)
			}
			if len(c.LongRunning) != tt.long || len(c.VeryLongRunning) != tt.veryLng {
				t.Errorf("classification = %+v", c)
			}
		})
	}
}
