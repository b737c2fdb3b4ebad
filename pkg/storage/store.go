package storage

import (
	"context"
	"time"
)

// Summary is a point-in-time statistical summary published by a sampler.
// It carries only derived statistics, never the raw samples, so reservoir
// state still dies with the process that owns it.
type Summary struct {
	Series          string    `json:"series"`
	Metric          string    `json:"metric"`
	TakenAt         time.Time `json:"takenAt"`
	IntervalSeconds int       `json:"intervalSeconds"`

	// Count is the total number of measurements ever ingested, not the
	// number retained by the reservoir.
	Count      uint64 `json:"count"`
	SampleSize int    `json:"sampleSize"`

	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`

	// Quantiles maps p-notation levels (e.g. "p50", "p99") to values.
	Quantiles map[string]int64 `json:"quantiles,omitempty"`
}

type Store interface {
	Put(ctx context.Context, summary Summary) error
	GetLatest(ctx context.Context, series string) (Summary, bool, error)
}
