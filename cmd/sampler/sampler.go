// Package main implements the core sampling loop orchestration.
//
// This file contains the Sampler type which orchestrates the pipeline:
//
//	collect → ingest → snapshot → store
//
// The Sampler runs continuously via Run(), executing Tick() at regular
// intervals. Each tick collects fresh values from the source, folds them into
// the exponentially decaying reservoir, and publishes a summary of the
// reservoir's current distribution for HTTP consumers.
//
// The loop is instrumented with Prometheus metrics tracking collection
// duration, ingestion volume, reservoir state, and any errors encountered.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/decaysample/cmd/sampler/metrics"
	"github.com/HatiCode/decaysample/pkg/quantile"
	"github.com/HatiCode/decaysample/pkg/reservoir"
	"github.com/HatiCode/decaysample/pkg/sources"
	"github.com/HatiCode/decaysample/pkg/storage"
)

// Sampler orchestrates the sampling loop: collect → ingest → summarize → store.
type Sampler struct {
	series    string
	metric    string
	source    sources.Source
	reservoir *reservoir.Reservoir
	store     storage.Store
	levels    []float64
	interval  time.Duration
	window    time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a new Sampler.
func New(
	series, metric string,
	source sources.Source,
	res *reservoir.Reservoir,
	store storage.Store,
	levels []float64,
	interval, window time.Duration,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Sampler{
		series:    series,
		metric:    metric,
		source:    source,
		reservoir: res,
		store:     store,
		levels:    levels,
		interval:  interval,
		window:    window,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the sampling loop at regular intervals.
// Blocks until context is canceled.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("starting sampling loop", "interval", s.interval, "window", s.window)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.Tick(ctx); err != nil {
		s.logger.Error("initial sampling tick failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sampling loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("sampling tick failed", "error", err)
			}
		}
	}
}

// Tick performs one sampling cycle.
// Exported for testing purposes.
func (s *Sampler) Tick(ctx context.Context) error {
	start := time.Now()
	s.logger.Debug("starting sampling tick")

	points, collectDuration, err := s.collect(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("source", "collect_failed")
		}
		return fmt.Errorf("collect: %w", err)
	}

	s.ingest(points)

	snap := s.reservoir.Snapshot()

	summary := s.summarize(snap)
	if err := s.store.Put(ctx, summary); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("store", "put_failed")
		}
		return fmt.Errorf("store: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SetSummaryAge(0) // Just published
		s.metrics.SetReservoirSize(snap.Len())
		for level, value := range summary.Quantiles {
			s.metrics.SetQuantile(level, value)
		}
	}

	totalDuration := time.Since(start)
	s.logger.Info("sampling tick complete",
		"series", s.series,
		"points", len(points),
		"reservoir_size", snap.Len(),
		"total_count", snap.Count(),
		"collect_ms", collectDuration.Milliseconds(),
		"total_ms", totalDuration.Milliseconds(),
	)

	return nil
}

// collect retrieves fresh values from the source.
func (s *Sampler) collect(ctx context.Context) ([]sources.Point, time.Duration, error) {
	start := time.Now()

	points, err := s.source.Collect(ctx, s.window)
	if err != nil {
		return nil, 0, err
	}

	duration := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordCollect(duration.Seconds())
	}

	s.logger.Debug("collected values",
		"source", s.source.Name(),
		"points", len(points),
		"window_seconds", int(s.window.Seconds()),
		"duration_ms", duration.Milliseconds(),
	)

	return points, duration, nil
}

// ingest folds collected points into the reservoir. Points carrying a
// timestamp are recorded at that time, the rest at the current time.
func (s *Sampler) ingest(points []sources.Point) {
	for _, p := range points {
		if p.At.IsZero() {
			s.reservoir.Update(p.Value)
		} else {
			s.reservoir.UpdateAt(p.At, p.Value)
		}
	}

	if s.metrics != nil {
		s.metrics.AddIngested(len(points))
	}
}

// summarize converts a reservoir snapshot to a storable summary.
func (s *Sampler) summarize(snap *reservoir.Snapshot) storage.Summary {
	summary := storage.Summary{
		Series:          s.series,
		Metric:          s.metric,
		TakenAt:         time.Now(),
		IntervalSeconds: int(s.interval.Seconds()),
		Count:           snap.Count(),
		SampleSize:      snap.Len(),
		Min:             snap.Min(),
		Max:             snap.Max(),
		Mean:            snap.Mean(),
		StdDev:          snap.StdDev(),
	}

	if len(s.levels) > 0 {
		summary.Quantiles = make(map[string]int64, len(s.levels))
		for _, q := range s.levels {
			summary.Quantiles[quantile.FormatLevel(q)] = snap.Value(q)
		}
	}

	return summary
}

// GetStore returns the underlying store for HTTP handlers.
func (s *Sampler) GetStore() storage.Store {
	return s.store
}

// GetSeries returns the series name.
func (s *Sampler) GetSeries() string {
	return s.series
}
