package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"riskscan/internal/usecase/notify"
)

type fakeHealth []notify.ChannelHealthStatus

func (f fakeHealth) ChannelHealth() []notify.ChannelHealthStatus { return f }

func TestChannelHealthHandler(t *testing.T) {
	until := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		statuses fakeHealth
		wantCode int
		wantBody string
	}{
		{
			name:     "all closed",
			statuses: fakeHealth{{Name: "slack"}},
			wantCode: http.StatusOK,
			wantBody: `{"healthy":true,"channels":[{"name":"slack","circuit_breaker_open":false}]}`,
		},
		{
			name:     "one open",
			statuses: fakeHealth{{Name: "slack"}, {Name: "discord", CircuitBreakerOpen: true, DisabledUntil: &until}},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"healthy":false,"channels":[{"name":"slack","circuit_breaker_open":false},{"name":"discord","circuit_breaker_open":true,"disabled_until":"2026-05-01T12:00:00Z"}]}`,
		},
		{
			name:     "no channels",
			statuses: fakeHealth{},
			wantCode: http.StatusOK,
			wantBody: `{"healthy":true,"channels":[]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			channelHealthHandler(tt.statuses).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/channels", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
