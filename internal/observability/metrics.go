package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "natal_chart"

// Metrics holds the Prometheus collectors for chart computation, its external
// collaborators, and the chart request pipeline.
type Metrics struct {
	ChartsComputed *prometheus.CounterVec // labels: house_system, outcome={success,invalid_input,location,timezone,ephemeris,geocoder}
	ChartDuration  prometheus.Histogram

	// Collaborator metrics.
	EphemerisRequests *prometheus.CounterVec   // labels: call={body,houses,star}, outcome={success,error}
	EphemerisDuration *prometheus.HistogramVec // labels: call
	GeocodeRequests   *prometheus.CounterVec   // labels: outcome={success,error,empty,no_timezone}
	GeocodeCache      *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeDuration   prometheus.Histogram

	// Pipeline metrics.
	RequestsConsumed        prometheus.Counter
	ResultsProduced         prometheus.Counter
	TransformErrors         prometheus.Counter
	TransformRetries        prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they need without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ChartsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_computed_total",
			Help:      "Chart computations by house system and outcome.",
		}, []string{"house_system", "outcome"}),
		ChartDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_duration_seconds",
			Help:      "End-to-end chart computation time including collaborator calls.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		EphemerisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ephemeris_requests_total",
			Help:      "Ephemeris service requests by call and outcome.",
		}, []string{"call", "outcome"}),
		EphemerisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ephemeris_request_duration_seconds",
			Help:      "Ephemeris service request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"call"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_requests_consumed_total",
			Help:      "Total chart requests read from the source topic.",
		}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_results_produced_total",
			Help:      "Total chart results written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_transform_errors_total",
			Help:      "Total chart requests rejected as uncomputable and skipped.",
		}),
		TransformRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_transform_retries_total",
			Help:      "Total chart request retries after a transient upstream failure.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_batch_size",
			Help:      "Number of chart requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_batch_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ChartsComputed,
		m.ChartDuration,
		m.EphemerisRequests,
		m.EphemerisDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeDuration,
		m.RequestsConsumed,
		m.ResultsProduced,
		m.TransformErrors,
		m.TransformRetries,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	}
}
