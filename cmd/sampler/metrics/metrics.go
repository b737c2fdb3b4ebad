// Package metrics provides Prometheus metrics instrumentation for the sampler.
//
// It exposes operational metrics about the sampling pipeline, including
// collection duration, ingestion volume, the state of the decaying reservoir,
// and error tracking. All metrics are exposed via the /metrics HTTP endpoint
// for Prometheus scraping.
//
// Metrics exposed:
//   - decaysample_source_collect_seconds: Histogram of source collection duration
//   - decaysample_samples_ingested_total: Counter of samples folded into the reservoir
//   - decaysample_reservoir_size: Gauge of samples currently retained
//   - decaysample_summary_age_seconds: Gauge of current summary age
//   - decaysample_quantile_value: Gauge of published quantile values by level
//   - decaysample_errors_total: Counter of errors by component and reason
//
// All metrics include the series label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the sampler.
type Metrics struct {
	SourceCollectSeconds prometheus.Histogram
	SamplesIngestedTotal prometheus.Counter
	ReservoirSize        prometheus.Gauge
	SummaryAgeSeconds    prometheus.Gauge
	QuantileValue        *prometheus.GaugeVec
	ErrorsTotal          *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New(series, source string) *Metrics {
	return &Metrics{
		SourceCollectSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "decaysample_source_collect_seconds",
			Help: "Time spent collecting values from the source",
			ConstLabels: prometheus.Labels{
				"source": source,
				"series": series,
			},
			Buckets: prometheus.DefBuckets,
		}),

		SamplesIngestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "decaysample_samples_ingested_total",
			Help: "Total number of samples folded into the reservoir",
			ConstLabels: prometheus.Labels{
				"series": series,
			},
		}),

		ReservoirSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "decaysample_reservoir_size",
			Help: "Number of samples currently retained in the reservoir",
			ConstLabels: prometheus.Labels{
				"series": series,
			},
		}),

		SummaryAgeSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "decaysample_summary_age_seconds",
			Help: "Age of the current summary in seconds",
			ConstLabels: prometheus.Labels{
				"series": series,
			},
		}),

		QuantileValue: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "decaysample_quantile_value",
			Help: "Published quantile values by level",
			ConstLabels: prometheus.Labels{
				"series": series,
			},
		}, []string{"level"}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "decaysample_errors_total",
			Help: "Total number of errors by component and reason",
			ConstLabels: prometheus.Labels{
				"series": series,
			},
		}, []string{"component", "reason"}),
	}
}

// RecordCollect records the time spent collecting values.
func (m *Metrics) RecordCollect(seconds float64) {
	m.SourceCollectSeconds.Observe(seconds)
}

// AddIngested increments the ingested sample counter.
func (m *Metrics) AddIngested(n int) {
	m.SamplesIngestedTotal.Add(float64(n))
}

// SetReservoirSize sets the current reservoir sample count.
func (m *Metrics) SetReservoirSize(n int) {
	m.ReservoirSize.Set(float64(n))
}

// SetSummaryAge sets the current summary age.
func (m *Metrics) SetSummaryAge(seconds float64) {
	m.SummaryAgeSeconds.Set(seconds)
}

// SetQuantile sets the published value for a quantile level.
func (m *Metrics) SetQuantile(level string, value int64) {
	m.QuantileValue.WithLabelValues(level).Set(float64(value))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
