package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"riskscan/internal/handler/http/responsewriter"
	"riskscan/internal/observability/metrics"
)

// unmatchedRoute labels requests that matched no registered pattern.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request count, latency and response size. The
// path label is the matched route pattern, which keeps label cardinality
// bounded regardless of what clients send.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		wrapped := responsewriter.Wrap(w)
		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(
			r.Method,
			routeLabel(r),
			strconv.Itoa(wrapped.Status()),
			time.Since(start),
			wrapped.Size(),
		)
	})
}

// routeLabel strips the method from a "METHOD /path" pattern set by
// http.ServeMux on the request it dispatched.
func routeLabel(r *http.Request) string {
	p := r.Pattern
	if p == "" {
		return unmatchedRoute
	}
	for i := 0; i < len(p); i++ {
		if p[i] == ' ' {
			return p[i+1:]
		}
	}
	return p
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
