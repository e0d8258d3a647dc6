package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	collector := &mockCollector{}

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(collector))
	r.Get("/community/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Post("/faceai/log/stats", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/community/questions/aaaa", nil),
		httptest.NewRequest(http.MethodGet, "/community/questions/bbbb", nil),
		httptest.NewRequest(http.MethodPost, "/faceai/log/stats", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []string{
		"GET /community/questions/{id} Not Found",
		"GET /community/questions/{id} Not Found",
		"POST /faceai/log/stats Created",
	}
	if len(collector.requests) != len(want) {
		t.Fatalf("recorded = %v, want %v", collector.requests, want)
	}
	for i := range want {
		if collector.requests[i] != want[i] {
			t.Errorf("recorded[%d] = %q, want %q", i, collector.requests[i], want[i])
		}
	}
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	collector := &mockCollector{}

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(collector))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/login.php", nil))

	if len(collector.requests) != 1 || collector.requests[0] != "GET unmatched Not Found" {
		t.Errorf("recorded = %v, want [GET unmatched Not Found]", collector.requests)
	}
}

func TestMetricsMiddleware_WithoutRouter(t *testing.T) {
	collector := &mockCollector{}
	handler := NewMetricsMiddleware(collector)(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(collector.requests) != 1 || collector.requests[0] != "GET unmatched OK" {
		t.Errorf("recorded = %v, want [GET unmatched OK]", collector.requests)
	}
}
