// Package sources provides measurement sources that pull scalar observations
// from external systems and normalize them for reservoir ingestion.
//
// Each source implements the Source interface and can be plugged into the
// sampler's ingest loop. Available sources:
//   - PrometheusSource: evaluates an instant PromQL query
//   - HTTPSource: generic source for any REST API with JSON responses
//   - StaticSource: fixed observations for tests and dry runs
//
// Sources are intentionally lightweight: they fetch raw data, shape it into
// timestamped Points, and leave sampling and statistics to the reservoir.
package sources

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Point is a single scalar observation with the time it was measured.
// Values are carried in the reservoir's integer measurement domain;
// sources with float-valued backends scale and round before emitting.
type Point struct {
	At    time.Time
	Value int64
}

// Source is the interface all measurement sources implement.
//
// Collect fetches observations for the last window and returns them in
// ascending timestamp order. It is synchronous, must respect context
// cancellation, and must never panic on backend errors.
type Source interface {
	Collect(ctx context.Context, window time.Duration) ([]Point, error)

	// Name returns a short, unique identifier for the source.
	// Example: "prometheus", "http", "static".
	Name() string
}

// scaleValue converts a float observation into the integer measurement
// domain, multiplying by scale (e.g. 1e6 to record seconds as micros).
func scaleValue(v, scale float64) (int64, error) {
	if scale == 0 {
		scale = 1
	}
	scaled := v * scale
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return 0, fmt.Errorf("value %v is not finite after scaling by %v", v, scale)
	}
	return int64(math.Round(scaled)), nil
}

// StaticSource returns a fixed set of observations on every collect, stamped
// relative to the current time. It exists for tests and dry runs.
type StaticSource struct {
	Values []int64
}

func (s *StaticSource) Name() string { return "static" }

// Collect returns one point per configured value, all stamped at the time of
// the call.
func (s *StaticSource) Collect(ctx context.Context, window time.Duration) ([]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	points := make([]Point, 0, len(s.Values))
	for _, v := range s.Values {
		points = append(points, Point{At: now, Value: v})
	}
	return points, nil
}
