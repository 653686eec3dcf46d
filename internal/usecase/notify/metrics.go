package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// channelMetrics counts alert deliveries per channel.
type channelMetrics struct {
	attempts *prometheus.CounterVec
	results  *prometheus.CounterVec // status: success|failure
	latency  *prometheus.HistogramVec
	trips    *prometheus.CounterVec
	dropped  *prometheus.CounterVec // reason: pool_full|circuit_open
	inFlight prometheus.Gauge
}

func newChannelMetrics(f promauto.Factory) *channelMetrics {
	byChannel := []string{"channel"}
	return &channelMetrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_delivery_attempts_total",
			Help: "Alert deliveries started per channel",
		}, byChannel),
		results: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_delivery_results_total",
			Help: "Finished alert deliveries per channel and status",
		}, []string{"channel", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alert_delivery_duration_seconds",
			Help:    "Time spent delivering one alert to one channel",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		}, byChannel),
		trips: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_channel_breaker_trips_total",
			Help: "Times a channel was disabled after consecutive failures",
		}, byChannel),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_delivery_dropped_total",
			Help: "Alerts not delivered to a channel, by reason",
		}, []string{"channel", "reason"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "alert_deliveries_in_flight",
			Help: "Alert deliveries currently running",
		}),
	}
}

var deliveryMetrics = newChannelMetrics(promauto.With(prometheus.DefaultRegisterer))

func (m *channelMetrics) started(channel string) {
	m.attempts.WithLabelValues(channel).Inc()
}

func (m *channelMetrics) finished(channel string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.results.WithLabelValues(channel, status).Inc()
	m.latency.WithLabelValues(channel).Observe(d.Seconds())
}

func (m *channelMetrics) drop(channel, reason string) {
	m.dropped.WithLabelValues(channel, reason).Inc()
}

func (m *channelMetrics) tripped(channel string) {
	m.trips.WithLabelValues(channel).Inc()
}
