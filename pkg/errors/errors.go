// Package errors provides structured error types for landscape.
//
// Every failure the pipeline can report carries a machine-readable [Code].
// Codes fall into two groups:
//
//   - Configuration and input codes (INVALID_*, CONFIG_*): returned to the
//     caller, the run stops.
//   - Recoverable data codes (DATA_*, NUMERICAL_*, GRAPH_*): produced by a
//     stage, logged with the error value, and recovered locally. They never
//     abort a run.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownMethod, "unsupported clustering method %q", name)
//	if errors.Is(err, errors.ErrCodeUnknownMethod) {
//	    // report configuration problem
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "read entities %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Configuration errors for closed strategy sets
	ErrCodeUnknownMethod     Code = "CONFIG_UNKNOWN_METHOD"
	ErrCodeUnknownLayout     Code = "CONFIG_UNKNOWN_LAYOUT"
	ErrCodeInvalidResolution Code = "CONFIG_INVALID_RESOLUTION"

	// Recoverable data conditions
	ErrCodeEmptyTags            Code = "DATA_EMPTY_TAGS"
	ErrCodeZeroNorm             Code = "NUMERICAL_ZERO_NORM"
	ErrCodeDisconnectedCluster  Code = "GRAPH_DISCONNECTED_CLUSTER"
	ErrCodeUnreachableNeighbors Code = "GRAPH_UNREACHABLE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// recoverable lists the codes that stages handle locally.
var recoverable = map[Code]bool{
	ErrCodeEmptyTags:            true,
	ErrCodeZeroNorm:             true,
	ErrCodeDisconnectedCluster:  true,
	ErrCodeUnreachableNeighbors: true,
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether the code describes a condition a stage
// degrades around instead of failing.
func (e *Error) Recoverable() bool {
	return recoverable[e.Code]
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConfig reports whether err is one of the configuration codes the
// caller is expected to fix.
func IsConfig(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeUnknownMethod, ErrCodeUnknownLayout, ErrCodeInvalidResolution:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
