package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff(t *testing.T) {
	unavailable := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	notFound := &HTTPError{StatusCode: 404, Message: "Not Found"}

	tests := []struct {
		name      string
		attempts  int
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first call succeeds", attempts: 2, wantCalls: 1},
		{name: "recovers on second call", attempts: 2, failures: 1, failWith: unavailable, wantCalls: 2},
		{name: "budget exhausted", attempts: 2, failures: 5, failWith: unavailable, wantCalls: 2, wantErr: unavailable},
		{name: "client error is final", attempts: 3, failures: 5, failWith: notFound, wantCalls: 1, wantErr: notFound},
		{name: "zero attempts still calls once", attempts: 0, failures: 5, failWith: unavailable, wantCalls: 1, wantErr: unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fastConfig(tt.attempts), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithBackoff_ExhaustedMentionsAttempts(t *testing.T) {
	err := WithBackoff(context.Background(), fastConfig(2), func() error {
		return syscall.ECONNRESET
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 attempts")
}

func TestWithBackoff_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	calls := 0
	err := WithBackoff(ctx, cfg, func() error {
		calls++
		cancel()
		return &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("judge: %w", context.DeadlineExceeded), false},
		{"net timeout", timeoutErr{}, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"connection reset", syscall.ECONNRESET, true},
		{"unreachable", syscall.ENETUNREACH, true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"599", &HTTPError{StatusCode: 599}, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"wrapped 502", fmt.Errorf("newsapi: %w", &HTTPError{StatusCode: 502}), true},
		{"401", &HTTPError{StatusCode: 401}, false},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"plain error", errors.New("malformed verdict"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestPresets_FitScanDeadlines(t *testing.T) {
	for name, cfg := range map[string]Config{
		"judge":     JudgeConfig(),
		"retrieval": RetrievalConfig(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 2, cfg.MaxAttempts)
			assert.LessOrEqual(t, cfg.InitialDelay, cfg.MaxDelay)
			assert.LessOrEqual(t, cfg.MaxDelay, time.Second)
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	assert.Equal(t, "HTTP 503: Service Unavailable", err.Error())
}

func TestConfig_Next(t *testing.T) {
	cfg := Config{Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, 200*time.Millisecond, cfg.next(100*time.Millisecond))
	assert.Equal(t, 300*time.Millisecond, cfg.next(200*time.Millisecond))
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := addJitter(base, 0.2)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+20*time.Millisecond)
	}
	assert.Equal(t, base, addJitter(base, 0))
	assert.LessOrEqual(t, addJitter(base, 5), 2*base)
}
