package service

import (
	"errors"
	"fmt"

	"github.com/artasyaskar/puzzleverse-mern/internal/dto"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrEmailTaken          = errors.New("email already registered")

	ErrInvalidTaskID = errors.New("invalid task id")
	ErrTaskNotFound  = errors.New("task not found")
)

// ValidationError reports a rejected input field. Its message is safe to
// return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError is returned when a status change is not allowed.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

// BulkValidationError lists every rejected item of a bulk import.
type BulkValidationError struct {
	Errors []dto.BulkError
}

func (e *BulkValidationError) Error() string {
	return fmt.Sprintf("bulk import rejected: %d invalid task(s)", len(e.Errors))
}
