// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Source errors. A source failure is recoverable: the orchestrator
	// advances to the next less-preferred source.
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoData means every source was exhausted without retrieving data.
	// Distinct from a successful run that matched zero complaints.
	ErrNoData = errors.New("no data retrieved")

	// Configuration errors. Fatal, raised before any network activity.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRecoverable reports whether a source error should advance the fetch
// state machine rather than abort the run.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrMalformedResponse)
}
