// Package http wires the screening API: routes, middleware, and the health
// and metrics endpoints.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"riskscan/internal/handler/http/respond"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Check reports the state of one dependency.
type Check func(ctx context.Context) CheckStatus

// HealthHandler runs every registered check. Only an unhealthy check fails
// the endpoint; degraded ones are reported with 200.
type HealthHandler struct {
	Version string
	Checks  map[string]Check
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]CheckStatus, len(names))
	status, code := statusHealthy, http.StatusOK
	for _, name := range names {
		res := h.Checks[name](ctx)
		results[name] = res
		if res.Status == statusUnhealthy {
			status, code = statusUnhealthy, http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
		Version:   h.Version,
	})
}

// DatabaseCheck pings db and reports connection pool usage.
func DatabaseCheck(db *sql.DB) Check {
	return func(ctx context.Context) CheckStatus {
		if err := db.PingContext(ctx); err != nil {
			return CheckStatus{Status: statusUnhealthy, Message: respond.SanitizeError(err)}
		}

		stats := db.Stats()
		details := map[string]any{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		}
		if stats.MaxOpenConnections == 0 {
			return CheckStatus{
				Status:  statusDegraded,
				Message: "connection pool max connections not configured",
				Details: details,
			}
		}
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80.0 {
			return CheckStatus{
				Status:  statusDegraded,
				Message: "connection pool utilization above 80%",
				Details: details,
			}
		}
		return CheckStatus{Status: statusHealthy, Details: details}
	}
}

// BreakerCheck reports a circuit breaker. An open breaker means the
// provider is being skipped, so it is degraded rather than unhealthy.
func BreakerCheck(state func() gobreaker.State) Check {
	return func(context.Context) CheckStatus {
		s := state()
		res := CheckStatus{
			Status:  statusHealthy,
			Details: map[string]any{"state": s.String()},
		}
		if s != gobreaker.StateClosed {
			res.Status = statusDegraded
		}
		return res
	}
}

// StaticCheck reports a fixed configuration fact, such as which judge
// provider is active.
func StaticCheck(details map[string]any) Check {
	return func(context.Context) CheckStatus {
		return CheckStatus{Status: statusHealthy, Details: details}
	}
}

// LiveHandler answers liveness probes.
type LiveHandler struct{}

// ServeHTTP implements http.Handler.
func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		slog.Debug("live: failed to write response", slog.Any("error", err))
	}
}
