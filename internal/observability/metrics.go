package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dock_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL job.
type Metrics struct {
	RunsCompleted     prometheus.Counter
	RunFailures       *prometheus.CounterVec // labels: stage={extract,transform,load}
	StationsProcessed prometheus.Counter
	PipelineRunning   prometheus.Gauge
	RunDuration       prometheus.Histogram

	// Last-run snapshot.
	StationsByColor *prometheus.GaugeVec // labels: color={green,yellow,red}
	TargetStations  *prometheus.GaugeVec // labels: class

	// Feed fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,http_error,decode_error,network_error}
	FetchDuration prometheus.Histogram

	// History table metrics.
	TableLoadFailures prometheus.Counter
	TableRows         prometheus.Gauge
}

// NewMetrics creates and registers all job metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewUnregisteredMetrics creates Metrics that are not registered anywhere.
// Commands that never expose or push metrics, such as the report tool, use
// it to satisfy store constructors.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return NewUnregisteredMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Total fetch-enrich-load runs that finished successfully.",
		}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs aborted, by the stage that failed.",
		}, []string{"stage"}),
		StationsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_processed_total",
			Help:      "Total station records classified.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the job is running, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one complete fetch-enrich-load run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		StationsByColor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_by_color",
			Help:      "Stations per severity class in the most recent run.",
		}, []string{"color"}),
		TargetStations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_class_stations",
			Help:      "Stations in the configured target class in the most recent run.",
		}, []string{"class"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Station feed requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Station feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		TableLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_load_failures_total",
			Help:      "Prior history tables that could not be parsed and were set aside.",
		}),
		TableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows in the history table after the last write.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RunsCompleted,
		m.RunFailures,
		m.StationsProcessed,
		m.PipelineRunning,
		m.RunDuration,
		m.StationsByColor,
		m.TargetStations,
		m.FetchRequests,
		m.FetchDuration,
		m.TableLoadFailures,
		m.TableRows,
	}
}
