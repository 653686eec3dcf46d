// Package worker holds the configuration, metrics and health probes of the
// watchlist worker process.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"riskscan/pkg/config"
)

// WorkerConfig controls the watchlist schedule.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression. Default "0 */6 * * *".
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in. Default "UTC".
	Timezone string

	// MinScore is the lowest risk score that raises an alert (0-100).
	// Default 60.
	MinScore int

	// NotifyMaxConcurrent bounds concurrent webhook sends (1-50).
	NotifyMaxConcurrent int

	// PassTimeout bounds one pass over the whole watchlist (1m-4h).
	PassTimeout time.Duration

	// HealthPort serves /health, /health/ready and /metrics (1024-65535).
	HealthPort int
}

// DefaultConfig returns the defaults used for any missing or invalid value.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:        "0 */6 * * *",
		Timezone:            "UTC",
		MinScore:            60,
		NotifyMaxConcurrent: 10,
		PassTimeout:         30 * time.Minute,
		HealthPort:          9091,
	}
}

// Validate collects every invalid field.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.MinScore, 0, 100); err != nil {
		errs = append(errs, fmt.Errorf("min score: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidateDurationRange(c.PassTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("pass timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads the worker settings. It is fail-open: each invalid
// value is replaced by its default, logged, and counted in metrics, so the
// returned config is always usable.
//
// Environment variables:
//   - WATCH_CRON (default "0 */6 * * *")
//   - WATCH_TIMEZONE (default "UTC")
//   - WATCH_MIN_SCORE (default 60)
//   - NOTIFY_MAX_CONCURRENT (default 10)
//   - WATCH_PASS_TIMEOUT (default 30m)
//   - WORKER_HEALTH_PORT (default 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	def := DefaultConfig()
	cfg := def
	fallback := false

	check := func(field, key string, err error, reset func()) {
		if err == nil {
			return
		}
		reset()
		fallback = true
		metrics.RecordFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("env_key", key),
			slog.Any("error", err))
	}

	cfg.CronSchedule = config.GetEnvString("WATCH_CRON", def.CronSchedule)
	check("cron_schedule", "WATCH_CRON", config.ValidateCronSchedule(cfg.CronSchedule),
		func() { cfg.CronSchedule = def.CronSchedule })

	cfg.Timezone = config.GetEnvString("WATCH_TIMEZONE", def.Timezone)
	check("timezone", "WATCH_TIMEZONE", config.ValidateTimezone(cfg.Timezone),
		func() { cfg.Timezone = def.Timezone })

	cfg.MinScore = config.GetEnvInt("WATCH_MIN_SCORE", def.MinScore)
	check("min_score", "WATCH_MIN_SCORE", config.ValidateIntRange(cfg.MinScore, 0, 100),
		func() { cfg.MinScore = def.MinScore })

	cfg.NotifyMaxConcurrent = config.GetEnvInt("NOTIFY_MAX_CONCURRENT", def.NotifyMaxConcurrent)
	check("notify_max_concurrent", "NOTIFY_MAX_CONCURRENT", config.ValidateIntRange(cfg.NotifyMaxConcurrent, 1, 50),
		func() { cfg.NotifyMaxConcurrent = def.NotifyMaxConcurrent })

	cfg.PassTimeout = config.GetEnvDuration("WATCH_PASS_TIMEOUT", def.PassTimeout)
	check("pass_timeout", "WATCH_PASS_TIMEOUT", config.ValidateDurationRange(cfg.PassTimeout, time.Minute, 4*time.Hour),
		func() { cfg.PassTimeout = def.PassTimeout })

	cfg.HealthPort = config.GetEnvInt("WORKER_HEALTH_PORT", def.HealthPort)
	check("health_port", "WORKER_HEALTH_PORT", config.ValidateIntRange(cfg.HealthPort, 1024, 65535),
		func() { cfg.HealthPort = def.HealthPort })

	metrics.SetFallbackActive(fallback)
	metrics.RecordLoadTimestamp()
	return &cfg
}
