package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics are the watchlist worker's Prometheus collectors.
type WorkerMetrics struct {
	PassRunsTotal         *prometheus.CounterVec
	PassDurationSeconds   prometheus.Histogram
	EntitiesScannedTotal  prometheus.Counter
	AlertsRaisedTotal     prometheus.Counter
	LastSuccessTimestamp  prometheus.Gauge
	ConfigFallbacksTotal  *prometheus.CounterVec
	ConfigFallbackActive  prometheus.Gauge
	ConfigLoadedTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the collectors with the default registry. Call
// it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return newWorkerMetrics(promauto.With(prometheus.DefaultRegisterer))
}

func newWorkerMetrics(f promauto.Factory) *WorkerMetrics {
	return &WorkerMetrics{
		PassRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_watch_runs_total",
			Help: "Watchlist passes by status (success/failure)",
		}, []string{"status"}),
		PassDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_watch_duration_seconds",
			Help:    "Duration of one watchlist pass in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),
		EntitiesScannedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_watch_entities_scanned_total",
			Help: "Watchlist entities screened across all passes",
		}),
		AlertsRaisedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "worker_watch_alerts_total",
			Help: "Alerts handed to the notification service",
		}),
		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_watch_last_success_timestamp",
			Help: "Unix timestamp of the last successful watchlist pass",
		}),
		ConfigFallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_config_fallbacks_total",
			Help: "Configuration values replaced by their default",
		}, []string{"field"}),
		ConfigFallbackActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_config_fallback_active",
			Help: "1 when any configuration default was applied at startup",
		}),
		ConfigLoadedTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "worker_config_load_timestamp",
			Help: "Unix timestamp of the last configuration load",
		}),
	}
}

// RecordPass records the outcome of one watchlist pass.
func (m *WorkerMetrics) RecordPass(success bool, seconds float64, entities, alerts int) {
	status := "failure"
	if success {
		status = "success"
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
	m.PassRunsTotal.WithLabelValues(status).Inc()
	m.PassDurationSeconds.Observe(seconds)
	m.EntitiesScannedTotal.Add(float64(entities))
	m.AlertsRaisedTotal.Add(float64(alerts))
}

func (m *WorkerMetrics) RecordFallback(field string) {
	m.ConfigFallbacksTotal.WithLabelValues(field).Inc()
}

func (m *WorkerMetrics) SetFallbackActive(active bool) {
	if active {
		m.ConfigFallbackActive.Set(1)
		return
	}
	m.ConfigFallbackActive.Set(0)
}

func (m *WorkerMetrics) RecordLoadTimestamp() {
	m.ConfigLoadedTimestamp.SetToCurrentTime()
}
