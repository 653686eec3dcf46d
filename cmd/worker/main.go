package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"riskscan/internal/bootstrap"
	"riskscan/internal/config"
	"riskscan/internal/handler/http/respond"
	"riskscan/internal/infra/notifier"
	workerPkg "riskscan/internal/infra/worker"
	"riskscan/internal/observability/logging"
	"riskscan/internal/observability/tracing"
	"riskscan/internal/usecase/notify"
	"riskscan/internal/usecase/watch"
)

const webhookTimeout = 10 * time.Second

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	if len(cfg.Watch.Entities) == 0 {
		logger.Error("WATCHLIST is empty, nothing to watch")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("min_score", workerConfig.MinScore),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Duration("pass_timeout", workerConfig.PassTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("entities", len(cfg.Watch.Entities)))

	shutdownTracing := tracing.Init(cfg.TraceSampleRatio)
	defer func() { _ = shutdownTracing(context.Background()) }()

	store, err := bootstrap.OpenAudit(ctx, cfg.Audit, logger)
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

	notifyService := notify.NewService(notificationChannels(logger, cfg.Watch), notify.Config{
		MaxConcurrent: workerConfig.NotifyMaxConcurrent,
	})

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	healthServer.Handle("GET /health/channels", channelHealthHandler(notifyService))
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	watchService := &watch.Service{
		Scanner:  pipeline.Service,
		Notifier: notifyService,
		Entities: cfg.Watch.Entities,
		MinScore: workerConfig.MinScore,
	}

	startCronWorker(ctx, logger, watchService, workerConfig, workerMetrics, healthServer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := notifyService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notifications still in flight at shutdown", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// notificationChannels returns the configured webhooks, or the log channel
// when none is set.
func notificationChannels(logger *slog.Logger, cfg config.WatchConfig) []notify.Channel {
	var channels []notify.Channel
	if cfg.SlackWebhookURL != "" {
		channels = append(channels, notifier.NewSlack(notifier.SlackConfig{
			WebhookURL: cfg.SlackWebhookURL,
			Timeout:    webhookTimeout,
		}))
		logger.Info("slack channel enabled")
	}
	if cfg.DiscordWebhookURL != "" {
		channels = append(channels, notifier.NewDiscord(notifier.DiscordConfig{
			WebhookURL: cfg.DiscordWebhookURL,
			Timeout:    webhookTimeout,
		}))
		logger.Info("discord channel enabled")
	}
	if len(channels) == 0 {
		logger.Warn("no webhook configured, alerts are written to the log only")
		channels = append(channels, notifier.Log{})
	}
	return channels
}

// startCronWorker runs one pass immediately and then on schedule until ctx
// is cancelled. It returns after the running pass, if any, has finished.
func startCronWorker(ctx context.Context, logger *slog.Logger, svc *watch.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runWatchPass(ctx, logger, svc, cfg, metrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", loc.String()))

	go runWatchPass(ctx, logger, svc, cfg, metrics)

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("waiting for running watchlist pass")
	<-c.Stop().Done()
}

func runWatchPass(ctx context.Context, logger *slog.Logger, svc *watch.Service, cfg *workerPkg.WorkerConfig, metrics *workerPkg.WorkerMetrics) {
	start := time.Now()
	logger.Info("watchlist pass started")

	ctx, cancel := context.WithTimeout(ctx, cfg.PassTimeout)
	defer cancel()

	stats, err := svc.RunOnce(ctx)
	metrics.RecordPass(err == nil, time.Since(start).Seconds(), stats.Entities-stats.Failed, stats.Alerted)
	if err != nil {
		logger.Error("watchlist pass finished with errors",
			slog.String("error", respond.SanitizeError(err)),
			slog.Int("failed", stats.Failed),
			slog.Int("alerted", stats.Alerted))
		return
	}
	logger.Info("watchlist pass completed",
		slog.Int("entities", stats.Entities),
		slog.Int("adverse", stats.Adverse),
		slog.Int("alerted", stats.Alerted),
		slog.Duration("duration", time.Since(start)))
}
