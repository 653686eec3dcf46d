package judge_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/infra/judge"
	"riskscan/internal/resilience/retry"
	"riskscan/internal/usecase/scan"
)

func claudeServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func claudeConfig(url string) judge.Config {
	return judge.Config{
		Provider:  judge.ProviderClaude,
		APIKey:    "test-key",
		MaxTokens: 256,
		BaseURL:   url + "/",
		Timeout:   5 * time.Second,
	}
}

const claudeReply = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-5-20250929",
	"content": [{"type": "text", "text": "{\"isRelevant\": true}"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 12, "output_tokens": 5}
}`

func TestClaude_Judge(t *testing.T) {
	var hits atomic.Int32
	srv := claudeServer(t, http.StatusOK, claudeReply, &hits)

	j := judge.NewClaude(claudeConfig(srv.URL))
	got, err := j.Judge(context.Background(), "classify this")

	require.NoError(t, err)
	assert.Equal(t, `{"isRelevant": true}`, got)
	assert.Equal(t, "claude", j.Name())
	assert.EqualValues(t, 1, hits.Load())
}

func slowClaudeServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(claudeReply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaude_CallerDeadlineGoverns(t *testing.T) {
	srv := slowClaudeServer(t, 150*time.Millisecond)
	cfg := claudeConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	j := judge.NewClaude(cfg)

	// A brief budget longer than the per-call default lets the slow reply through.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := j.Judge(ctx, "write the brief")
	require.NoError(t, err)
	assert.Equal(t, `{"isRelevant": true}`, got)

	// Without a caller deadline the configured timeout applies.
	_, err = j.Judge(context.Background(), "write the brief")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClaude_ServerErrorIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := claudeServer(t, http.StatusInternalServerError,
		`{"type": "error", "error": {"type": "api_error", "message": "boom"}}`, &hits)

	_, err := judge.NewClaude(claudeConfig(srv.URL)).Judge(context.Background(), "classify this")

	require.Error(t, err)
	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.EqualValues(t, retry.JudgeConfig().MaxAttempts, hits.Load())
}

func TestClaude_ClientErrorFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := claudeServer(t, http.StatusUnauthorized,
		`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`, &hits)

	_, err := judge.NewClaude(claudeConfig(srv.URL)).Judge(context.Background(), "classify this")

	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestClaude_EmptyContentIsParseError(t *testing.T) {
	var hits atomic.Int32
	srv := claudeServer(t, http.StatusOK,
		`{"id": "msg_02", "type": "message", "role": "assistant", "model": "m", "content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`, &hits)

	_, err := judge.NewClaude(claudeConfig(srv.URL)).Judge(context.Background(), "classify this")

	assert.True(t, errors.Is(err, scan.ErrParse), "got %v", err)
}

func TestOpenAI_Judge(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "write a brief", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Acme faces a probe."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	j := judge.NewOpenAI(judge.Config{
		Provider:  judge.ProviderOpenAI,
		APIKey:    "test-key",
		Model:     "gpt-test",
		MaxTokens: 256,
		BaseURL:   srv.URL + "/v1",
		Timeout:   5 * time.Second,
	})
	got, err := j.Judge(context.Background(), "write a brief")

	require.NoError(t, err)
	assert.Equal(t, "Acme faces a probe.", got)
	assert.Equal(t, "openai", j.Name())
	assert.EqualValues(t, 1, hits.Load())
}

func TestOpenAI_RateLimitIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "rate_limit_error"}}`))
	}))
	defer srv.Close()

	j := judge.NewOpenAI(judge.Config{
		Provider: judge.ProviderOpenAI, APIKey: "k", MaxTokens: 64,
		BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second,
	})
	_, err := j.Judge(context.Background(), "x")

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.EqualValues(t, retry.JudgeConfig().MaxAttempts, hits.Load())
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      judge.Config
		wantNil  bool
		wantErr  bool
		wantName string
	}{
		{name: "none", cfg: judge.Config{Provider: judge.ProviderNone}, wantNil: true},
		{name: "empty provider", cfg: judge.Config{}, wantNil: true},
		{name: "claude", cfg: judge.Config{Provider: "claude", APIKey: "k", MaxTokens: 1, Timeout: time.Second}, wantName: "claude"},
		{name: "openai", cfg: judge.Config{Provider: "openai", APIKey: "k", MaxTokens: 1, Timeout: time.Second}, wantName: "openai"},
		{name: "missing key", cfg: judge.Config{Provider: "claude", MaxTokens: 1, Timeout: time.Second}, wantErr: true},
		{name: "unknown", cfg: judge.Config{Provider: "gemini", APIKey: "k", MaxTokens: 1, Timeout: time.Second}, wantErr: true},
		{name: "no timeout", cfg: judge.Config{Provider: "openai", APIKey: "k", MaxTokens: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := judge.New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, j)
				return
			}
			require.NotNil(t, j)
			assert.Equal(t, tt.wantName, j.Name())
		})
	}
}
