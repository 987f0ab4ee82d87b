package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec
	batchRunsTotal      *prometheus.CounterVec
	batchUnitsTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for admin and
// batch observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		batchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Total number of bulk account batch runs by terminal status.",
		}, []string{"kind", "status"})

		batchUnitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch_units_total",
			Help: "Total number of bulk account batch units processed.",
		}, []string{"kind", "outcome"})

		prometheus.MustRegister(adminRequestsTotal, adminLatencySeconds, adminErrorsTotal, batchRunsTotal, batchUnitsTotal)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// BatchRuns exposes the counter for batch runs by terminal status.
func BatchRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return batchRunsTotal
}

// BatchUnits exposes the counter for processed batch units.
func BatchUnits() *prometheus.CounterVec {
	RegisterMetrics()
	return batchUnitsTotal
}
