package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	DaysConsumed     prometheus.Counter
	ProductsProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Detection metrics.
	DetectionDuration *prometheus.HistogramVec // label: instrument
	CellsMasked       *prometheus.CounterVec   // label: instrument
	ExtentsExtracted  prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DaysConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloud_etl",
			Name:      "days_consumed_total",
			Help:      "Total observation-day bundles read from the source topic.",
		}),
		ProductsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloud_etl",
			Name:      "products_produced_total",
			Help:      "Total cloud products written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloud_etl",
			Name:      "transform_errors_total",
			Help:      "Total transformation failures.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cloud_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cloud_etl",
			Name:      "batch_size",
			Help:      "Number of day bundles per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cloud_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DetectionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cloud_etl",
			Name:      "detection_duration_seconds",
			Help:      "Per-sensor cloud detection duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"instrument"}),
		CellsMasked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cloud_etl",
			Name:      "cells_masked_total",
			Help:      "Native grid cells marked cloudy, by instrument.",
		}, []string{"instrument"}),
		ExtentsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cloud_etl",
			Name:      "extents_extracted_total",
			Help:      "Cloud-layer base/top pairs found in fused columns.",
		}),
	}

	prometheus.MustRegister(
		m.DaysConsumed,
		m.ProductsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.DetectionDuration,
		m.CellsMasked,
		m.ExtentsExtracted,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DaysConsumed:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cloud_etl", Name: "days_consumed_total"}),
		ProductsProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cloud_etl", Name: "products_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cloud_etl", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "cloud_etl", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "cloud_etl", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "cloud_etl", Name: "batch_processing_duration_seconds"}),
		DetectionDuration:       prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "cloud_etl", Name: "detection_duration_seconds"}, []string{"instrument"}),
		CellsMasked:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "cloud_etl", Name: "cells_masked_total"}, []string{"instrument"}),
		ExtentsExtracted:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cloud_etl", Name: "extents_extracted_total"}),
	}
}
