package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors for JobService.
var (
	// ErrJobNotFound indicates that the job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrQuotaExceeded indicates the owner hit the daily job creation cap.
	ErrQuotaExceeded = errors.New("daily job quota exceeded")
)

// JobServiceError wraps errors from the job service with context.
type JobServiceError struct {
	// Operation is the operation that failed (e.g., "enqueue_job").
	Operation string
	// Message is a human-readable description of the error.
	Message string
	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for JobServiceError.
func (e *JobServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("job service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *JobServiceError) Unwrap() error {
	return e.Err
}
