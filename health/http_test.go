package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func newTestRouter(results map[string]Result) *mux.Router {
	agg := NewAggregator()
	for name, r := range results {
		agg.Register(name, staticChecker(name, r))
	}
	r := mux.NewRouter()
	RegisterHandlers(r, agg)
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestLivenessHandler(t *testing.T) {
	rec := serve(newTestRouter(map[string]Result{"bridge": Unhealthy("down", nil)}), http.MethodGet, "/healthz")

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("liveness = %d %q, want 200 OK regardless of checks", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		result     Result
		wantStatus int
		wantBody   string
	}{
		{"healthy", Healthy("ok"), http.StatusOK, "OK"},
		{"degraded", Degraded("fallback only"), http.StatusOK, "DEGRADED"},
		{"unhealthy", Unhealthy("none", ErrNoTransport), http.StatusServiceUnavailable, "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestRouter(map[string]Result{"bridge": tt.result}), http.MethodGet, "/readyz")
			if rec.Code != tt.wantStatus || rec.Body.String() != tt.wantBody {
				t.Errorf("readyz = %d %q, want %d %q", rec.Code, rec.Body.String(), tt.wantStatus, tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	router := newTestRouter(map[string]Result{
		"bridge":   Degraded("fallback only").WithDetails(map[string]any{"native": false}),
		"fallback": Unhealthy("unreachable", errors.New("connection refused")),
	})

	rec := serve(router, http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" || resp.Timestamp == "" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Checks["fallback"].Error != "connection refused" {
		t.Errorf("fallback check = %+v", resp.Checks["fallback"])
	}
	if resp.Checks["bridge"].Details["native"] != false {
		t.Errorf("bridge details = %v", resp.Checks["bridge"].Details)
	}
}

func TestSingleCheckHandler(t *testing.T) {
	router := newTestRouter(map[string]Result{"bridge": Healthy("native")})

	rec := serve(router, http.MethodGet, "/health/bridge")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp CheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Message != "native" {
		t.Errorf("resp = %+v", resp)
	}

	if rec := serve(router, http.MethodGet, "/health/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown check status = %d, want 404", rec.Code)
	}
}

func TestRegisterHandlers_Methods(t *testing.T) {
	router := newTestRouter(nil)
	if rec := serve(router, http.MethodPost, "/health"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health = %d, want 405", rec.Code)
	}
	if rec := serve(router, http.MethodHead, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("HEAD /healthz = %d, want 200", rec.Code)
	}
}
