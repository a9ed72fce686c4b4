// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input errors.
	ErrInvalidThread  = errors.New("invalid thread")
	ErrInvalidOutcome = errors.New("invalid outcome")
	ErrInvalidInput   = errors.New("invalid input")

	// Storage errors.
	ErrNotFound        = errors.New("not found")
	ErrStoreContention = errors.New("trust store contention")

	// Fallback errors.
	ErrFallbackUnavailable = errors.New("fallback classifier unavailable")
	ErrFallbackTimeout     = errors.New("fallback classifier timed out")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// PreconditionError reports a violated input invariant. It is never retried.
type PreconditionError struct {
	Err    error
	Detail string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// NewPreconditionError wraps a sentinel with a human readable detail.
func NewPreconditionError(sentinel error, detail string) error {
	return &PreconditionError{Err: sentinel, Detail: detail}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	var precondition *PreconditionError
	if errors.As(err, &precondition) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrStoreContention) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
