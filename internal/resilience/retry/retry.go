// Package retry retries transient upstream failures with exponential backoff
// and jitter.
//
// Scans run under tight per-call deadlines, so both presets make at most two
// attempts with sub-second delays. The context deadline always wins over the
// attempt budget.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Config bounds a retry loop.
type Config struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64 // 0.0 to 1.0
}

// JudgeConfig is used for judge calls on the scan path.
func JudgeConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialDelay:   300 * time.Millisecond,
		MaxDelay:       time.Second,
		Multiplier:     2,
		JitterFraction: 0.2,
	}
}

// RetrievalConfig is used for news, archive and social feed requests.
func RetrievalConfig() Config {
	return Config{
		MaxAttempts:    2,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       500 * time.Millisecond,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// next returns the wait after one that lasted d.
func (c Config) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * c.Multiplier)
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return addJitter(d, c.JitterFraction)
}

// WithBackoff calls fn until it succeeds, returns an error IsRetryable
// rejects, runs out of attempts or ctx is done.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	wait := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				slog.Debug("upstream call recovered", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
		}

		slog.Warn("upstream call failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-t.C:
		}
		wait = cfg.next(wait)
	}
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	switch {
	case fraction <= 0:
		return d
	case fraction > 1:
		fraction = 1
	}
	// #nosec G404 -- jitter does not need a cryptographic source.
	return d + time.Duration(rand.Float64()*fraction*float64(d))
}
