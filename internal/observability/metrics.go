package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// normalization pipeline.
type Metrics struct {
	ArticlesConsumed prometheus.Counter
	ArticlesRejected *prometheus.CounterVec // labels: reason={not_relevant,parse_error,seen}
	EventsEmitted    prometheus.Counter
	EventsDropped    prometheus.Counter // dropped as duplicates
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Location resolution and repair metrics.
	LocationResolutions *prometheus.CounterVec // labels: method
	RepairCorrections   *prometheus.CounterVec // labels: kind={coordinates,rescore}
	RepairRuns          prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ArticlesConsumed,
		m.ArticlesRejected,
		m.EventsEmitted,
		m.EventsDropped,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.LocationResolutions,
		m.RepairCorrections,
		m.RepairRuns,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so multiple
// tests can build fresh sets without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ArticlesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "articles_consumed_total",
			Help:      "Total articles read from the source topic.",
		}),
		ArticlesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "articles_rejected_total",
			Help:      "Articles dropped before emission, by reason.",
		}, []string{"reason"}),
		EventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "events_emitted_total",
			Help:      "Normalized events written to the sink topic and store.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "events_deduplicated_total",
			Help:      "Candidate events dropped as duplicates.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "osint_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "osint_etl",
			Name:      "batch_size",
			Help:      "Number of articles per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "osint_etl",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-normalize-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		LocationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "location_resolutions_total",
			Help:      "Location resolutions by coordinate method.",
		}, []string{"method"}),
		RepairCorrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "repair_corrections_total",
			Help:      "Stored events corrected by the repair job, by kind.",
		}, []string{"kind"}),
		RepairRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osint_etl",
			Name:      "repair_runs_total",
			Help:      "Completed repair job passes.",
		}),
	}
}
