// Command sampler maintains a bounded, exponentially decaying sample of a
// metric stream and publishes distribution summaries.
//
// The sampler runs a continuous loop that:
//  1. Collects fresh values from a configured source
//  2. Folds them into a fixed-size decaying reservoir that favors recent data
//  3. Publishes a summary (count, min, max, mean, stddev, quantiles)
//  4. Exposes summaries via HTTP API at /stats/current
//
// The sampler serves an HTTP API on port 8082 (configurable) providing:
//   - GET /stats/current?series=<name> - Retrieve latest summary
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	sampler \
//	  -series=checkout-api \
//	  -metric=request_latency_us \
//	  -source=prometheus \
//	  -interval=30s \
//	  -quantiles=p50,p95,p99
//
// Environment variables:
//
//	SERIES         - Series name (required)
//	METRIC         - Metric name (required)
//	SOURCE         - Source type: prometheus, http, or static (required)
//	SOURCE_*       - Source-specific settings (e.g. SOURCE_URL, SOURCE_QUERY)
//	INTERVAL       - Collection interval (default: 30s)
//	WINDOW         - Collection window per tick (default: 30s)
//	RESERVOIR_SIZE - Maximum retained sample count (default: 1028)
//	ALPHA          - Exponential decay factor per second (default: 0.015)
//	QUANTILES      - Published quantile levels (default: p50,p75,p95,p99)
//	STORAGE        - Storage backend: memory or redis (default: memory)
//	LOG_LEVEL      - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT     - Logging format: text, json (default: text)
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/decaysample/cmd/sampler/config"
	"github.com/HatiCode/decaysample/cmd/sampler/logger"
	"github.com/HatiCode/decaysample/cmd/sampler/metrics"
	"github.com/HatiCode/decaysample/cmd/sampler/router"
	"github.com/HatiCode/decaysample/pkg/httpx"
	"github.com/HatiCode/decaysample/pkg/quantile"
	"github.com/HatiCode/decaysample/pkg/reservoir"
	"github.com/HatiCode/decaysample/pkg/sources"
	"github.com/HatiCode/decaysample/pkg/storage"
	"github.com/HatiCode/decaysample/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	log := logger.New(cfg)
	slog.SetDefault(log)

	if err := config.Validate(cfg); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("starting decaysample sampler",
		"version", version,
		"series", cfg.Series,
		"metric", cfg.Metric,
	)

	source, err := sources.New(cfg.Source, cfg.SourceConfig)
	if err != nil {
		log.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	levels, err := quantile.ParseLevels(cfg.Quantiles)
	if err != nil {
		log.Error("failed to parse quantile levels", "error", err)
		os.Exit(1)
	}

	store := newStore(cfg, log)
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error("failed to close store", "error", err)
			}
		}()
	}

	res := reservoir.New(cfg.ReservoirSize, cfg.Alpha)

	s := New(
		cfg.Series,
		cfg.Metric,
		source,
		res,
		store,
		levels,
		cfg.Interval,
		cfg.Window,
		log,
		metrics.New(cfg.Series, source.Name()),
	)

	staleAfter := 2 * cfg.Interval // Summary is stale if older than 2x the interval
	mux := router.SetupRoutes(store, staleAfter, log)
	httpServer := httpx.NewServer(cfg.Listen, mux, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := s.Run(ctx); err != nil && err != context.Canceled {
			log.Error("sampling loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- startServer(httpServer, cfg, log)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "error", err)
		}
	}

	log.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

// newStore creates the configured storage backend.
func newStore(cfg *config.Config, log *slog.Logger) storage.Store {
	switch cfg.Storage {
	case "redis":
		store, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			log.Error("failed to create redis store", "error", err)
			os.Exit(1)
		}
		log.Info("using redis storage", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
		return store
	default:
		log.Info("using in-memory storage")
		return storage.NewMemoryStore()
	}
}

// startServer starts the HTTP server, with mTLS when configured.
func startServer(server *httpx.Server, cfg *config.Config, log *slog.Logger) error {
	if !cfg.TLS.Enabled {
		return server.Start()
	}

	tlsConfig, err := tls.NewServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile)
	if err != nil {
		return err
	}
	server.SetTLSConfig(tlsConfig)

	log.Info("TLS enabled", "cert", cfg.TLS.CertFile)
	return server.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
}
