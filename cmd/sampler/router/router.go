// Package router configures HTTP routes for the sampler's HTTP API.
//
// The sampler exposes an HTTP server on port 8082 (configurable) that provides
// summary retrieval, health checks, and Prometheus metrics. This package sets
// up the routes for that HTTP server.
//
// Routes configured:
//   - GET /stats/current?series=<name> - Retrieve latest summary
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /metrics - Prometheus metrics endpoint
//
// The /stats/current endpoint returns summaries in JSON format, including
// order statistics (min, max, mean, stddev) and the configured quantile
// levels. Summaries older than the stale threshold include an
// X-Decaysample-Stale header.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/decaysample/pkg/httpx"
	"github.com/HatiCode/decaysample/pkg/storage"
)

var seriesNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]{0,251}[a-zA-Z0-9])?$`)

// SetupRoutes configures HTTP endpoints for the sampler.
func SetupRoutes(store storage.Store, staleAfter time.Duration, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandler())

	mux.HandleFunc("/stats/current", handleGetSummary(store, staleAfter, logger))

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handleGetSummary returns a handler for GET /stats/current?series=<name>.
func handleGetSummary(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		series := r.URL.Query().Get("series")
		if series == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "series parameter required")
			return
		}

		if !seriesNameRegex.MatchString(series) {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid series name format")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		summary, found, err := store.GetLatest(ctx, series)
		if err != nil {
			logger.Error("failed to get summary", "series", series, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("summary not found for series %q", series))
			return
		}

		if time.Since(summary.TakenAt) > staleAfter {
			w.Header().Set("X-Decaysample-Stale", "true")
		}

		if err := httpx.WriteJSON(w, http.StatusOK, summary); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}
