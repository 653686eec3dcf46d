package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"riskscan/internal/domain/entity"
	"riskscan/internal/observability/logging"
)

const (
	maxAttempts      = 2
	defaultBaseDelay = 5 * time.Second
	truncationSuffix = "..."
)

// RateLimitError is a 429 from a webhook.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-429 4xx from a webhook. It is not retried.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string { return e.Message }

// ServerError is a 5xx from a webhook.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string { return e.Message }

func isRetryable(err error) bool {
	var clientErr *ClientError
	return !errors.As(err, &clientErr)
}

// webhook posts JSON payloads and classifies the response.
type webhook struct {
	name       string
	url        string
	client     *http.Client
	limiter    *RateLimiter
	retryDelay time.Duration
}

func (w *webhook) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    w.name + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", w.name, string(body)),
		}
	default:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", w.name, string(body)),
		}
	}
}

// send waits for the rate limiter and posts payload. A 429 sleeps for the
// advertised retry_after; 5xx and transport errors back off linearly.
func (w *webhook) send(ctx context.Context, alert entity.Alert, payload any) error {
	logger := logging.FromContext(ctx).With(
		slog.String("channel", w.name),
		slog.String("query", alert.Query),
		slog.String("url", alert.Key()))

	if err := w.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	baseDelay := w.retryDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := w.post(ctx, payload)
		if err == nil {
			logger.Info("alert delivered", slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			logger.Error("alert rejected by webhook", slog.Any("error", err))
			return err
		}
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay * time.Duration(attempt)
		var rl *RateLimitError
		if errors.As(err, &rl) {
			delay = rl.RetryAfter
		}
		logger.Warn("alert delivery failed, retrying",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
		}
	}
	return fmt.Errorf("%s notification failed after %d attempts: %w", w.name, maxAttempts, lastErr)
}

// extractRetryAfter reads retry_after (seconds) from a JSON body, then the
// Retry-After header, defaulting to 5s.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var parsed struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(parsed.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultBaseDelay
}

// truncate shortens text to maxRunes runes including suffix.
func truncate(text string, maxRunes int) string {
	r := []rune(text)
	if len(r) <= maxRunes {
		return text
	}
	cut := maxRunes - len(truncationSuffix)
	if cut < 0 {
		cut = 0
	}
	return string(r[:cut]) + truncationSuffix
}

// riskLine renders "High (score 85) · Regulatory, Legal".
func riskLine(v entity.Verdict) string {
	line := fmt.Sprintf("%s (score %d)", v.Severity, v.RiskScore)
	if len(v.RiskTypes) > 0 {
		line += " · " + strings.Join(v.RiskTypes, ", ")
	}
	return line
}
