// Package retry provides a small, stateless retry engine with
// exponential backoff.
//
// The engine is a pure function over a repeatable operation: it holds no
// shared mutable state, so a single Policy value can drive any number of
// concurrent calls.
//
// Backoff Strategy
//   - Exponential backoff based on BaseDelay: delay = BaseDelay * 2^attempt
//   - No jitter and no upper cap; callers with large retry budgets should
//     size BaseDelay accordingly.
//
// Retries
//   - Controlled via Policy.MaxRetries: an operation is invoked at most
//     1 + MaxRetries times.
//   - When Policy.Retryable is set, only errors it accepts are retried;
//     everything else is surfaced immediately.
//   - Exhausting the budget surfaces the last underlying error as-is.
package retry

import (
	"context"
	"time"
)

// Operation is a single fallible attempt producing a value of type T.
// It is invoked once per attempt and must be safe to call repeatedly.
type Operation[T any] func(ctx context.Context) (T, error)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the number of re-attempts after the initial one.
	// Zero means exactly one attempt and no waiting.
	MaxRetries uint

	// BaseDelay is the unit delay multiplied by 2^attempt between
	// attempts. Zero disables waiting but keeps the attempt counting.
	BaseDelay time.Duration

	// Retryable classifies whether an error is worth another attempt.
	// A nil classifier retries every error up to the budget.
	Retryable func(error) bool
}

// Do invokes op until it succeeds, the error is classified as not
// retryable, or the retry budget is exhausted. The context only
// interrupts the wait between attempts; cancelling an in-flight attempt
// is the operation's own responsibility.
func Do[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	var zero T

	for attempt := uint(0); ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if attempt >= p.MaxRetries {
			return zero, err
		}

		if p.Retryable != nil && !p.Retryable(err) {
			return zero, err
		}

		select {
		case <-time.After(p.Delay(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Delay returns the backoff delay for the given zero-based attempt.
func (p Policy) Delay(attempt uint) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	// Clamp the shift so the multiplier cannot overflow int64.
	if attempt > 32 {
		attempt = 32
	}
	return p.BaseDelay * time.Duration(uint64(1)<<attempt)
}
