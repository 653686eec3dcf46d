package http

import (
	"log/slog"
	"net/http"
	"time"

	auditH "riskscan/internal/handler/http/audit"
	"riskscan/internal/handler/http/middleware"
	"riskscan/internal/handler/http/requestid"
	scanH "riskscan/internal/handler/http/scan"
	"riskscan/internal/observability/tracing"
)

// DefaultAuditTimeout bounds the audit endpoints.
const DefaultAuditTimeout = 10 * time.Second

// RouterConfig carries the handlers and policies of the API.
type RouterConfig struct {
	Logger *slog.Logger

	Scan  scanH.Scanner
	Audit auditH.Service

	// ScanLimiter throttles /scan per client; nil disables throttling.
	ScanLimiter *IPRateLimiter
	CORS        middleware.CORSConfig
	Health      *HealthHandler

	// AuditTimeout defaults to DefaultAuditTimeout.
	AuditTimeout time.Duration
}

// NewRouter builds the HTTP handler. Middleware runs outermost first:
// CORS, request ID, tracing, recover, logging, body limit, metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditTimeout := cfg.AuditTimeout
	if auditTimeout <= 0 {
		auditTimeout = DefaultAuditTimeout
	}

	mux := http.NewServeMux()

	var limit func(http.Handler) http.Handler
	if cfg.ScanLimiter != nil {
		limit = cfg.ScanLimiter.Limit
	}
	scanH.Register(mux, cfg.Scan, limit)

	auditMux := http.NewServeMux()
	auditH.Register(auditMux, cfg.Audit)
	audit := Timeout(auditTimeout)(auditMux)
	mux.Handle("/action", audit)
	mux.Handle("/history", audit)

	health := cfg.Health
	if health == nil {
		health = &HealthHandler{}
	}
	mux.Handle("GET /health", health)
	mux.Handle("GET /live", LiveHandler{})
	mux.Handle("GET /metrics", MetricsHandler())

	var h http.Handler = MetricsMiddleware(mux)
	h = LimitRequestBody(MaxBodyBytes)(h)
	h = Logging(logger)(h)
	h = Recover(logger)(h)
	h = tracing.Middleware(h)
	h = requestid.Middleware(h)
	h = middleware.CORS(cfg.CORS)(h)
	return h
}
