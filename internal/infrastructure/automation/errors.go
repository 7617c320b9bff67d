package automation

import (
	"context"
	"errors"
	"fmt"
)

// RecoverableError marks a failure worth retrying: timeouts, flaky network,
// a page that did not settle. The orchestrator retries these within the
// attempt budget.
type RecoverableError struct {
	Message string
	Cause   error
}

func (e *RecoverableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RecoverableError) Unwrap() error {
	return e.Cause
}

// FatalError marks a failure retrying cannot fix: bad credentials, content
// the platform rejected, a blocked account. The orchestrator terminates the
// task immediately, budget notwithstanding.
type FatalError struct {
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// Recoverable wraps an error as retryable
func Recoverable(message string, cause error) error {
	return &RecoverableError{Message: message, Cause: cause}
}

// Fatal wraps an error as terminal
func Fatal(message string, cause error) error {
	return &FatalError{Message: message, Cause: cause}
}

// IsRecoverable reports whether the orchestrator may retry after err.
// Plain context deadlines count as recoverable; an unclassified error does
// not get the benefit of the doubt.
func IsRecoverable(err error) bool {
	var r *RecoverableError
	if errors.As(err, &r) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsFatal reports whether err must terminate the task
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}
