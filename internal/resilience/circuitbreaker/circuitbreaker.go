// Package circuitbreaker guards calls to outside services (news providers,
// the judge, the social feed, the audit store) with sony/gobreaker.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes when a breaker trips and how long it stays open.
type Config struct {
	// Name appears in logs and in /health as breaker_<name>.
	Name string

	// MaxRequests let through while half-open.
	MaxRequests uint32
	// Interval clears closed-state counts.
	Interval time.Duration
	// Timeout is the time spent open before probing.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the breaker, once at
	// least MinRequests were seen in the interval.
	FailureThreshold float64
	MinRequests      uint32
}

// JudgeConfig opens quickly and probes again soon so a scan falls back to the
// degraded verdict rather than waiting on a dead model API.
func JudgeConfig(provider string) Config {
	return Config{
		Name:             provider + "-judge",
		MaxRequests:      2,
		Interval:         30 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// RetrievalConfig is used per news provider.
func RetrievalConfig(provider string) Config {
	return Config{
		Name:             provider + "-retrieval",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      5,
	}
}

// SocialConfig is used for the social signal feed.
func SocialConfig() Config {
	return Config{
		Name:             "social-feed",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          2 * time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

// CircuitBreaker is a named gobreaker.CircuitBreaker.
type CircuitBreaker struct {
	*gobreaker.CircuitBreaker
}

// New creates a circuit breaker from cfg.
func New(cfg Config) *CircuitBreaker {
	return &CircuitBreaker{gobreaker.NewCircuitBreaker(settings(cfg))}
}

func settings(cfg Config) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
		// A caller giving up says nothing about the remote side.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}
}

// IsOpen reports whether calls are currently rejected.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == gobreaker.StateOpen
}
