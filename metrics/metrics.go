// Package metrics provides Prometheus metrics collection for HTTP server and
// comparison pipeline monitoring:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - comparison_total: Counter with outcome and stage labels
//   - comparison_fallback_total: Counter of comparisons priced by generic candidates
//   - comparison_duration_seconds: Histogram of full pipeline runs
//   - catalog_refresh_total: Counter with result label
//   - tool_outcome_total: Counter of failed tool responses by path and kind
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
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

	ComparisonTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_total",
			Help: "Comparison pipeline runs by outcome kind and failing stage",
		},
		[]string{"outcome", "stage"},
	)

	ComparisonFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comparison_fallback_total",
			Help: "Comparisons priced through the generic-candidate fallback",
		},
	)

	ComparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comparison_duration_seconds",
			Help:    "Comparison pipeline latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	ToolOutcomeTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_outcome_total",
			Help: "Tool responses reporting ok=false, by route and failure kind",
		},
		[]string{"path", "kind"},
	)

	CatalogRefreshTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Catalog refresh attempts by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ComparisonTotals)
	prometheus.MustRegister(ComparisonFallbackTotal)
	prometheus.MustRegister(ComparisonDuration)
	prometheus.MustRegister(CatalogRefreshTotals)
	prometheus.MustRegister(ToolOutcomeTotals)
}

// ObserveComparison records one pipeline run. outcome is "ok" on success.
func ObserveComparison(outcome, stage string, fallback bool, seconds float64) {
	ComparisonTotals.WithLabelValues(outcome, stage).Inc()
	if fallback {
		ComparisonFallbackTotal.Inc()
	}
	ComparisonDuration.Observe(seconds)
}
