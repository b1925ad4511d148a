// Package metrics exposes Prometheus collectors for the extraction service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequestsTotal          *prometheus.CounterVec
	upstreamRequestDurationSeconds *prometheus.HistogramVec
	reauthAttemptsTotal            *prometheus.CounterVec
	postsExtractedTotal            *prometheus.CounterVec
	analyticsErrorsTotal           *prometheus.CounterVec
	runsTotal                      *prometheus.CounterVec
	sinkUploadsTotal               *prometheus.CounterVec
	runDurationSeconds             prometheus.Histogram
	httpRequestsTotal              *prometheus.CounterVec
	httpRequestDurationSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_upstream_requests_total",
				Help: "Total upstream API requests, labeled by endpoint and status code.",
			},
			[]string{"endpoint", "code"},
		)

		upstreamRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creator_upstream_request_duration_seconds",
				Help:    "Histogram of upstream request latencies, labeled by endpoint.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		)

		reauthAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_reauth_attempts_total",
				Help: "Total re-authentication attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		postsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_posts_extracted_total",
				Help: "Total post records produced, labeled by workspace.",
			},
			[]string{"workspace"},
		)

		analyticsErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_analytics_errors_total",
				Help: "Total post records carrying an analytics error marker, labeled by reason.",
			},
			[]string{"reason"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_runs_total",
				Help: "Total pipeline runs, labeled by status.",
			},
			[]string{"status"},
		)

		sinkUploadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_sink_uploads_total",
				Help: "Total sink table uploads, labeled by table and outcome.",
			},
			[]string{"table", "outcome"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "creator_run_duration_seconds",
				Help:    "Histogram of full pipeline run durations.",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1800},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "creator_http_requests_total",
				Help: "Total ops API requests, labeled by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "creator_http_request_duration_seconds",
				Help:    "Histogram of ops API request latencies, labeled by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstreamRequest records one upstream API call.
func ObserveUpstreamRequest(endpoint string, code int, duration time.Duration) {
	upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	upstreamRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveReauth records a re-authentication attempt outcome.
func ObserveReauth(outcome string) {
	reauthAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObservePostExtracted increments the per-workspace post counter.
func ObservePostExtracted(workspace string) {
	postsExtractedTotal.WithLabelValues(workspace).Inc()
}

// ObserveAnalyticsError increments the error-marker counter for a reason.
func ObserveAnalyticsError(reason string) {
	analyticsErrorsTotal.WithLabelValues(reason).Inc()
}

// ObserveRun records a completed pipeline run.
func ObserveRun(status string, duration time.Duration) {
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.Observe(duration.Seconds())
}

// ObserveSinkUpload records one table upload attempt.
func ObserveSinkUpload(table, outcome string) {
	sinkUploadsTotal.WithLabelValues(table, outcome).Inc()
}

// ObserveHTTPRequest records one ops API request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}
