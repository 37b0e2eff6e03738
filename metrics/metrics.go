// Package metrics provides Prometheus metrics collection for the service.
// It exports HTTP request metrics plus counters and gauges for the
// substance generation pipeline.
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	GenerationRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_total",
			Help: "Total generation runs by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Generation run duration",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SubstancesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "substances_total",
			Help: "Substances in the current dataset",
		},
	)

	SkippedRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "skipped_rows_total",
			Help: "Raw rows skipped during normalization",
		},
	)

	UniiEnrichedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unii_enriched_total",
			Help: "Substances enriched with UNII data",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(GenerationRunsTotal)
	prometheus.MustRegister(GenerationDuration)
	prometheus.MustRegister(SubstancesTotal)
	prometheus.MustRegister(SkippedRowsTotal)
	prometheus.MustRegister(UniiEnrichedTotal)
}
