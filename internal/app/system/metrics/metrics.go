// Package metrics exposes Prometheus instrumentation for HTTP traffic,
// reader analytics, logins and background jobs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuverse_http_requests_total",
			Help: "Total HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docuverse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docuverse_http_active_requests",
			Help: "Requests currently being served",
		},
	)

	// Reader analytics
	PageViewsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docuverse_page_views_total",
			Help: "Page view events recorded",
		},
	)

	SearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "docuverse_searches_total",
			Help: "Public search queries served",
		},
	)

	// Auth
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuverse_login_attempts_total",
			Help: "Login attempts by result (success, invalid, disabled, locked)",
		},
		[]string{"result"},
	)

	// Background jobs
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docuverse_job_runs_total",
			Help: "Background job executions by job and result",
		},
		[]string{"job", "result"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docuverse_job_duration_seconds",
			Help:    "Background job duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"job"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin records a login attempt outcome.
func RecordLogin(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordJob records a background job execution.
func RecordJob(job string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	JobRunsTotal.WithLabelValues(job, result).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}
