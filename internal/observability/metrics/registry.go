// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks requests currently being served.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Scan pipeline metrics
var (
	// ScansTotal counts scans by outcome: ok, empty, degraded, rejected.
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskscan_scans_total",
			Help: "Total number of scans by outcome",
		},
		[]string{"outcome"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskscan_scan_duration_seconds",
			Help:    "End-to-end scan duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 12, 16, 24},
		},
	)

	DocumentsFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskscan_documents_fetched",
			Help:    "Documents surviving retrieval and dedup per scan",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 80},
		},
	)

	// ClassificationsTotal counts verdicts by how they were produced:
	// judge, prefilter, heuristic, degraded.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskscan_classifications_total",
			Help: "Total number of document classifications by mode",
		},
		[]string{"mode"},
	)

	JudgeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riskscan_judge_duration_seconds",
			Help:    "Judge service call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 6, 8},
		},
		[]string{"provider"},
	)

	ClustersPerScan = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskscan_clusters_per_scan",
			Help:    "Number of clusters returned per scan",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 12},
		},
	)

	// ProviderFailuresTotal counts absorbed provider failures. reason is one
	// of timeout, unavailable, status, parse, circuit_open.
	ProviderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskscan_provider_failures_total",
			Help: "Total number of provider failures absorbed into fallbacks",
		},
		[]string{"provider", "reason"},
	)

	AuditRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskscan_audit_records_total",
			Help: "Total number of audit records appended by action",
		},
		[]string{"action"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
