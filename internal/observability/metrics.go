package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the feed loader.
type Metrics struct {
	// Fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,status_error,transport_error,cancelled,invalid_url}
	FetchDuration prometheus.Histogram

	// Load metrics.
	LoadsTotal          *prometheus.CounterVec // labels: result={data,partial,no_data}
	LoadsSuperseded     prometheus.Counter
	ParseErrors         prometheus.Counter
	EarthquakesLoaded   prometheus.Gauge
	LastSuccessUnixTime prometheus.Gauge
	PipelineRunning     prometheus.Gauge

	// Sink metrics.
	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all loader metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "fetch_requests_total",
			Help:      "USGS feed requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_feed",
			Name:      "fetch_duration_seconds",
			Help:      "USGS feed request duration in seconds, including the body read.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "loads_total",
			Help:      "Completed fetch-then-parse loads by result.",
		}, []string{"result"}),
		LoadsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "loads_superseded_total",
			Help:      "In-flight loads cancelled by a newer load request.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "parse_errors_total",
			Help:      "Feed documents that failed to parse completely.",
		}),
		EarthquakesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_feed",
			Name:      "earthquakes_loaded",
			Help:      "Number of earthquakes in the latest batch.",
		}),
		LastSuccessUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_feed",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last load that returned data.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_feed",
			Name:      "pipeline_running",
			Help:      "1 when the loader is active, 0 when shut down.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_feed",
			Name:      "publish_errors_total",
			Help:      "Batches the sink failed to publish.",
		}),
	}

	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.LoadsTotal,
		m.LoadsSuperseded,
		m.ParseErrors,
		m.EarthquakesLoaded,
		m.LastSuccessUnixTime,
		m.PipelineRunning,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FetchRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "fetch_requests_total"}, []string{"outcome"}),
		FetchDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_feed", Name: "fetch_duration_seconds"}),
		LoadsTotal:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_feed", Name: "loads_total"}, []string{"result"}),
		LoadsSuperseded:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "loads_superseded_total"}),
		ParseErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "parse_errors_total"}),
		EarthquakesLoaded:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_feed", Name: "earthquakes_loaded"}),
		LastSuccessUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_feed", Name: "last_success_timestamp_seconds"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_feed", Name: "pipeline_running"}),
		PublishErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_feed", Name: "publish_errors_total"}),
	}
}
