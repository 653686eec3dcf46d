// Package scan implements adverse-media screening: it retrieves candidate
// documents for an entity, classifies them with a judgment service, merges
// coverage of the same risk event into clusters and writes a short brief.
//
// Only an invalid query is reported as an error. Every provider failure is
// absorbed into a lower-confidence value so that a scan always produces a
// well-formed result.
package scan

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"riskscan/internal/resilience/bounded"
	"riskscan/internal/resilience/retry"
)

// Sentinel errors for provider failures. They never leave the package as a
// scan error; they are logged, counted and turned into fallbacks.
var (
	// ErrProviderUnavailable indicates a provider that is unconfigured, down,
	// or behind an open circuit breaker.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderTimeout indicates a provider call that exceeded its deadline.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrParse indicates a provider response that could not be decoded.
	ErrParse = errors.New("malformed provider response")
)

// failureReason maps an error to the reason label of the provider failure metric.
func failureReason(err error) string {
	var httpErr *retry.HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrProviderTimeout):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, bounded.ErrPanic):
		return "panic"
	case errors.As(err, &httpErr):
		return "status"
	default:
		return "unavailable"
	}
}
