package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HatiCode/decaysample/pkg/storage"
)

func testSummary(takenAt time.Time) storage.Summary {
	return storage.Summary{
		Series:          "test-api",
		Metric:          "request_latency_us",
		TakenAt:         takenAt,
		IntervalSeconds: 30,
		Count:           5000,
		SampleSize:      1028,
		Min:             120,
		Max:             98000,
		Mean:            2400.5,
		StdDev:          310.2,
		Quantiles: map[string]int64{
			"p50": 2100,
			"p99": 41000,
		},
	}
}

func TestSetupRoutes(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := SetupRoutes(store, 2*time.Minute, logger)

	if mux == nil {
		t.Fatal("SetupRoutes() returned nil")
	}
}

func TestHealthEndpoint(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if body != "OK" {
		t.Errorf("body = %q, want %q", body, "OK")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	// Metrics endpoint should return prometheus text format
	contentType := w.Header().Get("Content-Type")
	if contentType == "" {
		t.Error("Content-Type header should be set for metrics endpoint")
	}
}

func TestGetSummary_MissingSeries(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/stats/current", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetSummary_InvalidSeries(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/stats/current?series=-bad-name-", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetSummary_NotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/stats/current?series=nonexistent", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetSummary_Success(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := store.Put(context.Background(), testSummary(time.Now())); err != nil {
		t.Fatalf("failed to put summary: %v", err)
	}

	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/stats/current?series=test-api", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want %q", contentType, "application/json")
	}

	// Summary is fresh so the stale header must be absent
	staleHeader := w.Header().Get("X-Decaysample-Stale")
	if staleHeader == "true" {
		t.Error("summary should not be marked as stale")
	}
}

func TestGetSummary_Stale(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := store.Put(context.Background(), testSummary(time.Now().Add(-5*time.Minute))); err != nil {
		t.Fatalf("failed to put summary: %v", err)
	}

	mux := SetupRoutes(store, 2*time.Minute, logger) // Stale after 2 minutes

	req := httptest.NewRequest(http.MethodGet, "/stats/current?series=test-api", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	staleHeader := w.Header().Get("X-Decaysample-Stale")
	if staleHeader != "true" {
		t.Error("summary should be marked as stale")
	}
}

func TestGetSummary_JSONResponse(t *testing.T) {
	store := storage.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := store.Put(context.Background(), testSummary(time.Now())); err != nil {
		t.Fatalf("failed to put summary: %v", err)
	}

	mux := SetupRoutes(store, 2*time.Minute, logger)

	req := httptest.NewRequest(http.MethodGet, "/stats/current?series=test-api", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	body := w.Body.String()
	if body == "" {
		t.Fatal("response body is empty")
	}

	expectedFields := []string{
		"\"series\"",
		"\"metric\"",
		"\"takenAt\"",
		"\"intervalSeconds\"",
		"\"count\"",
		"\"sampleSize\"",
		"\"min\"",
		"\"max\"",
		"\"mean\"",
		"\"stddev\"",
		"\"quantiles\"",
		"\"p99\"",
	}

	for _, field := range expectedFields {
		if !strings.Contains(body, field) {
			t.Errorf("response missing field %s", field)
		}
	}
}
