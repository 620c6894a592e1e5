package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the acquisition pipeline.
type Metrics struct {
	LinesRead       prometheus.Counter
	LinesParsed     *prometheus.CounterVec // labels: format={positional,keyvalue}
	ParseErrors     *prometheus.CounterVec // labels: kind={format,value,domain}
	RecordsLoaded   *prometheus.CounterVec // labels: sink
	LoadErrors      *prometheus.CounterVec // labels: sink
	RecordsDropped  *prometheus.CounterVec // labels: sink
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Latest measurement, for dashboards.
	LastSalinity    prometheus.Gauge
	LastTemperature prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesRead,
		m.LinesParsed,
		m.ParseErrors,
		m.RecordsLoaded,
		m.LoadErrors,
		m.RecordsDropped,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.LastSalinity,
		m.LastTemperature,
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
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tsg_reader",
			Name:      "lines_read_total",
			Help:      "Total lines read from the instrument source.",
		}),
		LinesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsg_reader",
			Name:      "lines_parsed_total",
			Help:      "Lines successfully parsed, by wire format.",
		}, []string{"format"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsg_reader",
			Name:      "parse_errors_total",
			Help:      "Lines rejected by the parser, by error kind.",
		}, []string{"kind"}),
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsg_reader",
			Name:      "records_loaded_total",
			Help:      "Records written, by sink.",
		}, []string{"sink"}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsg_reader",
			Name:      "load_errors_total",
			Help:      "Failed batch writes, by sink.",
		}, []string{"sink"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tsg_reader",
			Name:      "records_dropped_total",
			Help:      "Records abandoned after exhausting write retries, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tsg_reader",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tsg_reader",
			Name:      "batch_size",
			Help:      "Number of lines per batch extracted from the source.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tsg_reader",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch parse-and-load cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		LastSalinity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tsg_reader",
			Name:      "last_salinity_psu",
			Help:      "Salinity of the most recently parsed record.",
		}),
		LastTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tsg_reader",
			Name:      "last_temperature_celsius",
			Help:      "Temperature of the most recently parsed record.",
		}),
	}
}
