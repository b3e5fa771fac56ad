package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction pipeline.
type Metrics struct {
	RequestsConsumed    prometheus.Counter
	PredictionsProduced prometheus.Counter
	TransformErrors     prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Model evaluation metrics.
	PredictionOutcomes *prometheus.CounterVec // label: outcome={rate,warning,error}
	SignalRate         prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amp",
			Name:      "requests_consumed_total",
			Help:      "Total prediction requests read from the source topic.",
		}),
		PredictionsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amp",
			Name:      "predictions_produced_total",
			Help:      "Total prediction events written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amp",
			Name:      "transform_errors_total",
			Help:      "Total requests that could not be deserialized.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "amp",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amp",
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amp",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-evaluate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PredictionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amp",
			Name:      "prediction_outcomes_total",
			Help:      "Evaluated predictions by tagged outcome.",
		}, []string{"outcome"}),
		SignalRate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amp",
			Name:      "signal_rate",
			Help:      "Distribution of predicted relative signal rates.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 80, 100},
		}),
	}

	prometheus.MustRegister(
		m.RequestsConsumed,
		m.PredictionsProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.PredictionOutcomes,
		m.SignalRate,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RequestsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "amp", Name: "requests_consumed_total"}),
		PredictionsProduced:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "amp", Name: "predictions_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "amp", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "amp", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "amp", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "amp", Name: "batch_processing_duration_seconds"}),
		PredictionOutcomes:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "amp", Name: "prediction_outcomes_total"}, []string{"outcome"}),
		SignalRate:              prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "amp", Name: "signal_rate"}),
	}
}
