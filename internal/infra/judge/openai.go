package judge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"riskscan/internal/resilience/circuitbreaker"
	"riskscan/internal/resilience/retry"
	"riskscan/internal/usecase/scan"
)

// DefaultOpenAIModel is used when Config.Model is empty.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI implements scan.Judge with the Chat Completions API.
type OpenAI struct {
	client         *openai.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	model          string
	maxTokens      int
	timeout        time.Duration
}

// NewOpenAI creates an OpenAI judge.
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	slog.Info("initialized openai judge", slog.String("model", model))

	return &OpenAI{
		client:         openai.NewClientWithConfig(clientCfg),
		circuitBreaker: circuitbreaker.New(circuitbreaker.JudgeConfig(ProviderOpenAI)),
		retryConfig:    retry.JudgeConfig(),
		model:          model,
		maxTokens:      cfg.MaxTokens,
		timeout:        cfg.Timeout,
	}
}

// Name implements scan.Judge.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// Judge sends prompt as a single user message and returns the first choice.
func (o *OpenAI) Judge(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, o.timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doJudge(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai circuit breaker open, request rejected",
					slog.String("service", o.circuitBreaker.Name()),
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("%w: openai: %w", scan.ErrProviderUnavailable, err)
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("openai judge: %w", retryErr)
	}
	return result, nil
}

func (o *OpenAI) doJudge(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "openai call failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: %w", scan.ErrParse, errEmptyReply)
	}

	slog.DebugContext(ctx, "openai call completed",
		slog.String("request_id", resp.ID),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
		slog.Duration("duration", duration))
	return resp.Choices[0].Message.Content, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: "openai api error"}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: "openai request error"}
	}
	return fmt.Errorf("openai api error: %w", err)
}

// BreakerState reports the state of the OpenAI circuit breaker.
func (o *OpenAI) BreakerState() gobreaker.State { return o.circuitBreaker.State() }
