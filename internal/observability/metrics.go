package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	reviewRequestsTotal  *prometheus.CounterVec
	reviewLatencySeconds *prometheus.HistogramVec
	reviewErrorsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for the review
// admin surface.
func RegisterMetrics() {
	registerOnce.Do(func() {
		reviewRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_admin_requests_total",
			Help: "Total number of review admin API requests served.",
		}, []string{"method", "route", "status"})

		reviewLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "review_admin_latency_seconds",
			Help:    "Latency distribution for review admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		reviewErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "review_admin_errors_total",
			Help: "Total number of error responses returned by review admin endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(reviewRequestsTotal, reviewLatencySeconds, reviewErrorsTotal)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return reviewLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewErrorsTotal
}
