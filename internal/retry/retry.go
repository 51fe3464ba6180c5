// Package retry runs an operation in a bounded loop with a fixed delay between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ytsheets/internal/apierror"
)

// Config holds retry configuration.
type Config struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	// Delay is the fixed wait between attempts.
	Delay time.Duration
}

// DefaultConfig returns the production retry budget: three retries, five seconds apart.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Delay:      5 * time.Second,
	}
}

// ErrorClassifier determines if an error is retryable.
type ErrorClassifier func(error) bool

// IsRetryable is the default classifier. Authentication failures and context
// errors are permanent; everything else is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !apierror.IsAuth(err)
}

// Notify is called before each wait with the number of retries left
// (including the one about to happen), the wait and the error that triggered it.
type Notify func(remaining int, wait time.Duration, err error)

// Do executes fn until it succeeds, returns a permanent error, or the retry
// budget is spent. Exhausting the budget returns a *RetryableError wrapping the
// last failure; permanent failures are returned unchanged.
func Do(ctx context.Context, cfg Config, classifier ErrorClassifier, notify Notify, fn func(context.Context) error) error {
	if classifier == nil {
		classifier = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classifier(err) {
			return err
		}

		// Last attempt, don't sleep
		if attempt == cfg.MaxRetries {
			break
		}

		if notify != nil {
			notify(cfg.MaxRetries-attempt, cfg.Delay, err)
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return &RetryableError{Err: lastErr, Retries: cfg.MaxRetries}
}

// RetryableError wraps the last failure after the retry budget was exhausted.
type RetryableError struct {
	Err     error
	Retries int
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("failed after %d retries: %v", e.Retries, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
