package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tracklock/tracklock-backend/pkg/config"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.App.Port = "4000"
	return cfg
}

func newTestRouter() http.Handler {
	// Redis and the domain collaborators are nil: the routes exercised here
	// never reach them.
	return NewRouter(testConfig(), nil, stubPinger{}, nil, prometheus.NewRegistry(), nil, nil, nil, nil)
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/healthz", "/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d: %s", path, w.Code, w.Body.String())
		}
		if got := w.Header().Get("X-Tracklock-Env"); got != "test" {
			t.Fatalf("%s: expected env header, got %q", path, got)
		}
		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode body: %v", path, err)
		}
	}
}

func TestRouterServesMetrics(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}
