package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/observability/metrics"
)

func routedMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /history", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	mux.HandleFunc("POST /scan", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return mux
}

func TestMetricsMiddleware_LabelsByRoutePattern(t *testing.T) {
	h := MetricsMiddleware(routedMux())

	tests := []struct {
		method, target, label, status string
	}{
		{http.MethodGet, "/history?limit=5", "/history", "200"},
		{http.MethodPost, "/scan", "/scan", "400"},
		{http.MethodGet, "/articles/123", unmatchedRoute, "404"},
		{http.MethodGet, "/random/8f1c", unmatchedRoute, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			counter := metrics.HTTPRequestsTotal.WithLabelValues(tt.method, tt.label, tt.status)
			before := testutil.ToFloat64(counter)

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestMetricsMiddleware_ActiveConnections(t *testing.T) {
	var during float64
	before := testutil.ToFloat64(metrics.ActiveConnections)
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(metrics.ActiveConnections)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, before+1, during)
	assert.Equal(t, before, testutil.ToFloat64(metrics.ActiveConnections))
}

func TestRouteLabel(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, unmatchedRoute, routeLabel(r))

	r.Pattern = "POST /api/scan"
	assert.Equal(t, "/api/scan", routeLabel(r))

	r.Pattern = "/action"
	assert.Equal(t, "/action", routeLabel(r))
}

func TestMetricsHandler(t *testing.T) {
	h := MetricsMiddleware(routedMux())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/history", nil))

	srv := httptest.NewServer(MetricsHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "http_requests_total"))
	assert.True(t, strings.Contains(string(body), "http_active_connections"))
}
