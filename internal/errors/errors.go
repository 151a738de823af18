// Package errors provides the typed errors used across karton.
//
// Three kinds exist, each mapped to a distinct exit code:
//   - DefinitionError (3): the user's image definition contains mistakes
//   - ValidationError (2): improper usage (flags, image names, configuration)
//   - RuntimeError (1): failures while doing the work (I/O, staging, cleanup)
//
// Example usage:
//
//	if distro != "ubuntu" {
//		return errors.NewDefinitionError(path, fmt.Sprintf("Invalid distribution: %q.", distro), nil)
//	}
//
//	exitCode := errors.GetExitCode(err)
package errors

import (
	"errors"
	"fmt"
)

// DefinitionError is raised when an image definition file contains mistakes.
// Path always names the definition file that caused the error.
type DefinitionError struct {
	Path    string
	Message string
	Cause   error
}

// Error returns the human readable message. The message is expected to
// already describe the cause, so Cause is not appended.
func (e *DefinitionError) Error() string {
	return e.Message
}

// Unwrap implements the error unwrapping interface for error chain inspection.
func (e *DefinitionError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a validation or usage error.
type ValidationError struct {
	Message string
	Cause   error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements the error unwrapping interface for error chain inspection.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// RuntimeError represents a failure during execution (I/O, hard links, cleanup).
type RuntimeError struct {
	Message string
	Cause   error
}

// Error implements the error interface for RuntimeError.
func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements the error unwrapping interface for error chain inspection.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// NewDefinitionError creates a DefinitionError for the definition file at path.
func NewDefinitionError(path, msg string, cause error) error {
	return &DefinitionError{
		Path:    path,
		Message: msg,
		Cause:   cause,
	}
}

// NewValidationError creates a new ValidationError with the given message and cause.
func NewValidationError(msg string, cause error) error {
	return &ValidationError{
		Message: msg,
		Cause:   cause,
	}
}

// NewRuntimeError creates a new RuntimeError with the given message and cause.
func NewRuntimeError(msg string, cause error) error {
	return &RuntimeError{
		Message: msg,
		Cause:   cause,
	}
}

// AsDefinitionError reports whether err wraps a DefinitionError and returns it.
func AsDefinitionError(err error) (*DefinitionError, bool) {
	var defErr *DefinitionError
	if errors.As(err, &defErr) {
		return defErr, true
	}
	return nil, false
}

// GetExitCode extracts the appropriate exit code from an error.
// Returns:
//   - 3 for DefinitionError
//   - 2 for ValidationError
//   - 1 for RuntimeError and unknown errors
func GetExitCode(err error) int {
	var validationErr *ValidationError

	if _, ok := AsDefinitionError(err); ok {
		return 3
	}
	if errors.As(err, &validationErr) {
		return 2
	}
	return 1
}
