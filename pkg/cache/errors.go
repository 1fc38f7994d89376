package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks a backend that could not be reached.
var ErrNetwork = errors.New("cache backend unreachable")

// RetryableError marks an error worth retrying.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped by [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the first backoff step; it doubles after every attempt.
var retryDelay = 100 * time.Millisecond

// RetryWithBackoff calls fn up to three times, backing off between attempts.
// Only retryable errors are retried.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var last error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if last = err; !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return last
}
