// Package errors defines the structured error type shared by the bindcfg
// core: every failure that crosses a package boundary is a *BindError with a
// stable type/code pair so callers can match on it without string comparison.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeCodec      ErrorType = "codec"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeClosed     ErrorType = "closed"
	ErrorTypeInternal   ErrorType = "internal"
)

// BindError is a structured error type with context.
type BindError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Key         string
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *BindError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Key != "" {
		parts = append(parts, "key:"+e.Key)
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *BindError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *BindError) Is(target error) bool {
	var t *BindError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithKey adds the config key the error relates to.
func (e *BindError) WithKey(key string) *BindError {
	e.Key = key

	return e
}

// WithPath adds the file path the error relates to.
func (e *BindError) WithPath(path string) *BindError {
	e.Path = path

	return e
}

// WithCause attaches the underlying cause.
func (e *BindError) WithCause(cause error) *BindError {
	e.Cause = cause

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *BindError {
	return &BindError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *BindError {
	return &BindError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewCodecError creates a serialization error.
func NewCodecError(code, message string, cause error) *BindError {
	return &BindError{
		Type:        ErrorTypeCodec,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *BindError {
	return &BindError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewClosedError creates an error for operations on a closed resource.
func NewClosedError(code, message string) *BindError {
	return &BindError{
		Type:        ErrorTypeClosed,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *BindError {
	return &BindError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Sentinel errors used for errors.Is matching across packages.
var (
	// ErrBrokerClosed is returned when publishing on a completed broker.
	ErrBrokerClosed = NewClosedError("BROKER_CLOSED", "broker has been closed")

	// ErrEmptyKey is returned when an entry with an empty key is stored.
	ErrEmptyKey = NewValidationError("EMPTY_KEY", "config key must not be empty")

	// ErrDuplicateField is returned when a field id is registered twice.
	ErrDuplicateField = NewValidationError("DUPLICATE_FIELD", "field id already registered")
)

// IsRecoverable reports whether err is a BindError marked recoverable.
func IsRecoverable(err error) bool {
	var be *BindError
	if errors.As(err, &be) {
		return be.Recoverable
	}

	return false
}
