package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetricsUsesRoutePattern(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Wrap)
	r.Get("/api/v1/mass-payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"MP1", "MP2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/mass-payments/"+id, nil))
	}

	counter := m.requests.WithLabelValues(http.MethodGet, "/api/v1/mass-payments/{id}", "418")
	if got := testutil.ToFloat64(counter); got != 2 {
		t.Fatalf("expected both requests under one route label, got %v", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
	}
}

func TestHTTPMetricsFallsBackToNormalizedPath(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	handler := m.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/groups/G1/process", nil))

	counter := m.requests.WithLabelValues(http.MethodPost, "/api/v1/groups/:id/process", "201")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected normalized path label, got %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"mass payment path without suffix", "/api/v1/mass-payments/ABC123", "/api/v1/mass-payments/:id"},
		{"mass payment path with suffix", "/api/v1/mass-payments/ABC123/consistency", "/api/v1/mass-payments/:id/consistency"},
		{"group csv path", "/api/v1/groups/G1/recipients/csv", "/api/v1/groups/:id/recipients/csv"},
		{"account number path", "/api/v1/accounts/ACC-1/mass-payments", "/api/v1/accounts/:number/mass-payments"},
		{"collection root", "/api/v1/mass-payments", "/api/v1/mass-payments"},
		{"non-matching path", "/api/v1/recipients/validate", "/api/v1/recipients/validate"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
