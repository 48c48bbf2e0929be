// Package delivery wraps a single outbound send with bounded, sequential retries.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ChairReports/internal/domain"
)

// MaxAttempts is the number of send attempts per delivery.
const MaxAttempts = 3

// Backoff is the wait applied before each attempt, indexed by attempt number.
// Attempt 1 is immediate.
var Backoff = []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second}

// ErrExhausted is returned when every attempt failed. It wraps the last error.
var ErrExhausted = errors.New("delivery attempts exhausted")

// SendFunc performs exactly one outbound send.
type SendFunc func(ctx context.Context) (domain.SendResult, error)

// Outcome is the result of a delivery.
type Outcome struct {
	OK      bool
	Attempt int
	Result  domain.SendResult
	Err     error
}

// Retrier runs SendFuncs with the fixed backoff schedule.
type Retrier struct {
	sleep  func(ctx context.Context, d time.Duration) error
	logger *slog.Logger
}

// NewRetrier builds a Retrier that waits on the wall clock.
func NewRetrier(logger *slog.Logger) *Retrier {
	return &Retrier{sleep: Sleep, logger: logger}
}

// WithSleep swaps the wait function; tests use it to skip real delays.
func (r *Retrier) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Retrier {
	r.sleep = fn
	return r
}

// Deliver calls send until it succeeds or MaxAttempts is reached. A cancelled
// context stops the schedule early and is reported as the failure.
func (r *Retrier) Deliver(ctx context.Context, label string, send SendFunc) Outcome {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if d := Backoff[attempt-1]; d > 0 {
			if err := r.sleep(ctx, d); err != nil {
				return Outcome{Attempt: attempt - 1, Err: fmt.Errorf("%s: wait before attempt %d: %w", label, attempt, err)}
			}
		}

		result, err := send(ctx)
		if err == nil {
			r.debug("delivered", "label", label, "attempt", attempt, "id", result.ID)
			return Outcome{OK: true, Attempt: attempt, Result: result}
		}

		lastErr = err
		r.warn("delivery attempt failed", "label", label, "attempt", attempt, "error", err)
	}

	return Outcome{Attempt: MaxAttempts, Err: fmt.Errorf("%s: %w: %w", label, ErrExhausted, lastErr)}
}

// Sleep waits for d or until ctx is done. A non-positive d only reports ctx.Err.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r *Retrier) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Retrier) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
