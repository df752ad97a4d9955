package client

import (
	"errors"
	"fmt"
)

var (
	// ErrSendFailed is returned by push operations once every attempt failed.
	ErrSendFailed = errors.New("send failed")

	// ErrRetriesExhausted marks an operation that used its whole attempt budget.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// AttemptError describes an operation that failed on every attempt.
// It matches both ErrRetriesExhausted and the last attempt's error.
type AttemptError struct {
	Op       string
	Attempts int
	Err      error // last attempt error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %v after %d attempts: %v", e.Op, ErrRetriesExhausted, e.Attempts, e.Err)
}

func (e *AttemptError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

// SendFailure is posted on Client.SendFailures when a push gives up.
type SendFailure struct {
	Op        string
	RequestID string
	Attempts  int
	Err       error
}
