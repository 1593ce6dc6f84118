package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sounding"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest pipeline and the normalization dispatcher.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	DecodeErrors     prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Normalization metrics.
	SetData         *prometheus.CounterVec   // labels: shape
	SetDataErrors   *prometheus.CounterVec   // labels: shape
	ExtractDuration *prometheus.HistogramVec // labels: shape
	Notifications   *prometheus.CounterVec   // labels: channel, result={delivered,suppressed,stale}
	SupersededLoads prometheus.Counter
	DomainRebuilds  prometheus.Counter
	Inconsistencies prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.DecodeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.SetData,
		m.SetDataErrors,
		m.ExtractDuration,
		m.Notifications,
		m.SupersededLoads,
		m.DomainRebuilds,
		m.Inconsistencies,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total source messages that could not be decoded into a sounding.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		SetData: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "set_data_total",
			Help:      "Soundings submitted to the dispatcher by classified shape.",
		}, []string{"shape"}),
		SetDataErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "set_data_errors_total",
			Help:      "Soundings whose extraction failed by classified shape.",
		}, []string{"shape"}),
		ExtractDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_duration_seconds",
			Help:      "Time spent extracting axes and profiles from a sounding.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"shape"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outward notifications by channel and result.",
		}, []string{"channel", "result"}),
		SupersededLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_loads_total",
			Help:      "Extractions discarded because a newer sounding was loaded first.",
		}),
		DomainRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vertical_domain_rebuilds_total",
			Help:      "Vertical domains built by grid adapters.",
		}),
		Inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vertical_inconsistencies_total",
			Help:      "Grid steps whose columns disagree on the vertical coordinate.",
		}),
	}
}
