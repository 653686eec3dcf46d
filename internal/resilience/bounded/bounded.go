// Package bounded runs a single outside call under its own deadline and
// turns every way it can go wrong into a fallback value.
//
// A bounded call never returns an error and never outlives its deadline,
// even when the wrapped function ignores its context. A function that
// panics is treated like one that failed.
package bounded

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Call runs fn with a context limited to timeout. It returns fn's value on
// success and fallback(err) on error, timeout, cancellation or panic.
//
// When fn overruns, Call returns right away and fn's goroutine is left to
// finish on its own; its late result is dropped.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error), fallback func(error) T) T {
	if timeout <= 0 {
		timeout = time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		v, err := fn(callCtx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return fallback(out.err)
		}
		return out.val
	case <-callCtx.Done():
		err := callCtx.Err()
		slog.Debug("bounded call abandoned", slog.Duration("timeout", timeout), slog.Any("error", err))
		return fallback(err)
	}
}

// Value returns a fallback that ignores the error and yields v.
func Value[T any](v T) func(error) T {
	return func(error) T { return v }
}
