package main

import (
	"net/http"
	"time"

	"riskscan/internal/handler/http/respond"
	"riskscan/internal/usecase/notify"
)

type channelHealthResponse struct {
	Healthy  bool            `json:"healthy"`
	Channels []channelStatus `json:"channels"`
}

type channelStatus struct {
	Name               string     `json:"name"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

type channelHealthReporter interface {
	ChannelHealth() []notify.ChannelHealthStatus
}

// channelHealthHandler reports 503 while any channel is disabled by its
// breaker.
func channelHealthHandler(svc channelHealthReporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		statuses := svc.ChannelHealth()
		resp := channelHealthResponse{Healthy: true, Channels: make([]channelStatus, 0, len(statuses))}
		for _, s := range statuses {
			resp.Channels = append(resp.Channels, channelStatus{
				Name:               s.Name,
				CircuitBreakerOpen: s.CircuitBreakerOpen,
				DisabledUntil:      s.DisabledUntil,
			})
			if s.CircuitBreakerOpen {
				resp.Healthy = false
			}
		}
		code := http.StatusOK
		if !resp.Healthy {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(w, code, resp)
	})
}
