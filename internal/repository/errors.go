// package repository provides data access and error types
package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreUnavailable marks failures reaching the backing store: connection
// refused, pool acquisition timeout, dropped connections.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrTodoNotFound is returned when a todo with the specified ID does not exist
type ErrTodoNotFound struct {
	ID int64
}

// Error implements the error interface
func (e ErrTodoNotFound) Error() string {
	return fmt.Sprintf("todo with id %d not found", e.ID)
}

// ValidationError is returned for malformed or out-of-range input
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

// Error wraps a store failure with the operation that produced it
type Error struct {
	Op        string // Operation that failed
	Err       error  // Underlying error
	Retryable bool   // Whether the caller may retry
}

func (e *Error) Error() string {
	parts := []string{"repository: " + e.Op}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a store failure the client may retry
func IsRetryable(err error) bool {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Retryable
	}
	return false
}

func unavailable(op string, err error) error {
	return &Error{
		Op:        op,
		Err:       fmt.Errorf("%w: %w", ErrStoreUnavailable, err),
		Retryable: true,
	}
}
