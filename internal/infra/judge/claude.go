package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"riskscan/internal/resilience/circuitbreaker"
	"riskscan/internal/resilience/retry"
	"riskscan/internal/usecase/scan"
)

// DefaultClaudeModel is used when Config.Model is empty.
const DefaultClaudeModel = string(anthropic.ModelClaudeSonnet4_5_20250929)

// Claude implements scan.Judge with Anthropic's Messages API.
type Claude struct {
	client         anthropic.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	maxTokens      int
	timeout        time.Duration
}

// NewClaude creates a Claude judge. The SDK's own retries are disabled in
// favour of retry.WithBackoff.
func NewClaude(cfg Config) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	slog.Info("initialized claude judge", slog.String("model", model))

	return &Claude{
		client:         anthropic.NewClient(opts...),
		circuitBreaker: circuitbreaker.New(circuitbreaker.JudgeConfig(ProviderClaude)),
		retryConfig:    retry.JudgeConfig(),
		model:          model,
		maxTokens:      cfg.MaxTokens,
		timeout:        cfg.Timeout,
	}
}

// Name implements scan.Judge.
func (c *Claude) Name() string { return ProviderClaude }

// Judge sends prompt as a single user message and returns the text reply.
func (c *Claude) Judge(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, c.timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doJudge(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude circuit breaker open, request rejected",
					slog.String("service", c.circuitBreaker.Name()),
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("%w: claude: %w", scan.ErrProviderUnavailable, err)
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude judge: %w", retryErr)
	}
	return result, nil
}

func (c *Claude) doJudge(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "claude call failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", claudeError(err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("%w: claude: %w", scan.ErrParse, errEmptyReply)
	}
	block, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("%w: claude returned a non-text block", scan.ErrParse)
	}

	slog.DebugContext(ctx, "claude call completed",
		slog.String("request_id", requestID),
		slog.Int("reply_length", len(block.Text)),
		slog.Duration("duration", duration))
	return block.Text, nil
}

// claudeError maps an API status error onto retry.HTTPError.
func claudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: "claude api error"}
	}
	return fmt.Errorf("claude api error: %w", err)
}

// BreakerState reports the state of the Claude circuit breaker.
func (c *Claude) BreakerState() gobreaker.State { return c.circuitBreaker.State() }
