// Package judge adapts hosted language models to the scan.Judge port.
// Each adapter wraps its API call in retry with backoff and a circuit
// breaker, and maps upstream status codes to retry.HTTPError so that
// transient failures are retried and the rest fail fast.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"riskscan/internal/usecase/scan"
)

// Providers accepted by New.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config selects and configures a judgment provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	// MaxTokens bounds the reply length.
	MaxTokens int
	// BaseURL overrides the provider endpoint. Empty uses the public API.
	BaseURL string
	// Timeout bounds one call including retries when the caller's context
	// carries no deadline of its own.
	Timeout time.Duration
}

// Validate checks that the selected provider has what it needs.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderNone, "":
		return nil
	case ProviderClaude, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown judge provider %q", c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("judge provider %q requires an API key", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// New returns the configured judge. It returns a nil Judge for ProviderNone,
// which switches the classifier to keyword heuristics.
func New(cfg Config) (scan.Judge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderClaude:
		return NewClaude(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, nil
	}
}

// errEmptyReply is returned when the provider answered without text.
var errEmptyReply = errors.New("empty reply")

// callContext applies the configured timeout only when ctx has no deadline,
// so the classifier and brief budgets govern calls made on the scan path.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
