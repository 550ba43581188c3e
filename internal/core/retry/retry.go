// Package retry re-attempts fallible operations under an explicit,
// caller-supplied policy. The decision whether a failure is worth another
// attempt is delegated to apperror.Classify, so retry behavior stays
// consistent with the platform-wide error taxonomy.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
)

// Policy is an immutable set of retry parameters. Construct it once (in main,
// from configuration) and pass it explicitly into Do; it is never read from
// process-wide state.
type Policy struct {
	// MaxAttempts is the total number of invocations, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the pause before the second attempt.
	BaseDelay time.Duration

	// ExponentialBackoff doubles the delay after every failed attempt.
	ExponentialBackoff bool

	// MaxDelay caps the computed delay when backoff is enabled. Zero means
	// no cap.
	MaxDelay time.Duration

	// Jitter perturbs each delay randomly within [delay/2, delay] to avoid
	// synchronized retry storms against a recovering dependency.
	Jitter bool
}

// DefaultPolicy mirrors the RADAR sync defaults: three attempts, five second
// base delay, exponential backoff capped at one minute.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:        3,
		BaseDelay:          5 * time.Second,
		ExponentialBackoff: true,
		MaxDelay:           time.Minute,
		Jitter:             true,
	}
}

// delay computes the pause after the given failed attempt (1-based).
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	if p.ExponentialBackoff {
		for i := 1; i < attempt; i++ {
			d *= 2
			if p.MaxDelay > 0 && d >= p.MaxDelay {
				d = p.MaxDelay
				break
			}
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		half := d / 2
		d = half + rand.N(half+1)
	}
	return d
}

// Error wraps the final failure of a retried operation with attempt metadata,
// so callers can distinguish "never worked" from "gave up after N tries" from
// "caller canceled".
type Error struct {
	// Attempts is how many times the operation was invoked.
	Attempts int

	// Exhausted is true when a retryable failure survived MaxAttempts.
	Exhausted bool

	// Canceled is true when the caller's context ended between attempts.
	Canceled bool

	// Kind is the classification of the final failure.
	Kind apperror.Kind

	// Err is the final underlying error.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Canceled:
		return fmt.Sprintf("canceled after %d attempt(s): %v", e.Attempts, e.Err)
	case e.Exhausted:
		return fmt.Sprintf("exhausted %d attempt(s): %v", e.Attempts, e.Err)
	default:
		return fmt.Sprintf("failed after %d attempt(s): %v", e.Attempts, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err is a retry failure that used up all
// attempts on a retryable fault.
func IsExhausted(err error) bool {
	var re *Error
	return asRetryError(err, &re) && re.Exhausted
}

// IsCanceled reports whether err is a retry abort caused by context
// cancellation, distinct from exhaustion.
func IsCanceled(err error) bool {
	var re *Error
	return asRetryError(err, &re) && re.Canceled
}

func asRetryError(err error, target **Error) bool {
	for err != nil {
		if re, ok := err.(*Error); ok {
			*target = re
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Do invokes op until it succeeds, fails with a non-retryable error, exhausts
// policy.MaxAttempts, or ctx ends. The context is checked before every
// attempt and during every sleep; cancellation aborts promptly with a
// Canceled retry error.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &Error{Attempts: attempt - 1, Canceled: true, Kind: classifyKind(lastErr), Err: ctx.Err()}
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, "operation succeeded after retry", "attempt", attempt)
			}
			return result, nil
		}
		lastErr = err

		classified := apperror.Classify(err)
		if !classified.Retryable {
			logger.Warn(ctx, "operation failed, not retryable",
				"attempt", attempt,
				"kind", string(classified.Kind),
				"error", err,
			)
			return zero, &Error{Attempts: attempt, Kind: classified.Kind, Err: err}
		}
		if attempt == maxAttempts {
			logger.Error(ctx, "operation failed, attempts exhausted",
				"attempts", attempt,
				"kind", string(classified.Kind),
				"error", err,
			)
			return zero, &Error{Attempts: attempt, Exhausted: true, Kind: classified.Kind, Err: err}
		}

		delay := policy.delay(attempt)
		logger.Warn(ctx, "operation failed, will retry",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"kind", string(classified.Kind),
			"delay", delay.String(),
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			return zero, &Error{Attempts: attempt, Canceled: true, Kind: classified.Kind, Err: err}
		}
	}

	// Unreachable: the loop always returns.
	return zero, &Error{Attempts: maxAttempts, Exhausted: true, Err: lastErr}
}

func classifyKind(err error) apperror.Kind {
	if err == nil {
		return apperror.KindUnknown
	}
	return apperror.Classify(err).Kind
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
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
