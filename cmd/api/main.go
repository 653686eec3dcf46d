package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riskscan/internal/bootstrap"
	"riskscan/internal/config"
	hhttp "riskscan/internal/handler/http"
	"riskscan/internal/handler/http/middleware"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/tracing"
	auditUC "riskscan/internal/usecase/audit"
)

func main() {
	logger := initLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownTracing := tracing.Init(cfg.TraceSampleRatio)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := bootstrap.OpenAudit(startCtx, cfg.Audit, logger)
	cancel()
	if err != nil {
		logger.Error("failed to open audit store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close audit store", slog.Any("error", err))
		}
	}()

	pipeline, err := bootstrap.BuildScan(cfg, store.Repo, logger)
	if err != nil {
		logger.Error("failed to build scan pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	version := getVersion()
	handler := hhttp.NewRouter(hhttp.RouterConfig{
		Logger:      logger,
		Scan:        pipeline.Service,
		Audit:       &auditUC.Service{Repo: store.Repo},
		ScanLimiter: hhttp.NewIPRateLimiter(cfg.HTTP.ScanRatePerMin),
		CORS: middleware.CORSConfig{
			Validator: middleware.NewWhitelistValidator(cfg.HTTP.CORSAllowedOrigins),
			Logger:    logger,
		},
		Health: healthHandler(version, pipeline, store),
	})

	runServer(logger, cfg, handler, version)
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}

// healthHandler reports the audit database, every provider breaker and the
// active judge.
func healthHandler(version string, p *bootstrap.Pipeline, store *bootstrap.AuditStore) *hhttp.HealthHandler {
	checks := map[string]hhttp.Check{
		"judge": hhttp.StaticCheck(map[string]any{"provider": p.JudgeName}),
	}
	if store.DB != nil {
		checks["database"] = hhttp.DatabaseCheck(store.DB)
	}
	breakers := p.Breakers
	if store.Breaker != nil {
		breakers = append(breakers, *store.Breaker)
	}
	for _, b := range breakers {
		checks["breaker_"+b.Name] = hhttp.BreakerCheck(b.State)
	}
	return &hhttp.HealthHandler{Version: version, Checks: checks}
}

// runServer serves until SIGINT or SIGTERM, then drains in-flight requests.
func runServer(logger *slog.Logger, cfg *config.Config, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
