// Package errors provides structured error types for layerscope.
//
// The animation core never fails for data-shape reasons: malformed input is
// clamped or defaulted. Coded errors only surface at I/O and validation
// boundaries (loading model files, parsing flags, writing artifacts), where
// callers need machine-readable codes.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND / UNKNOWN_*: Resource lookup failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidModel, "duplicate layer id %q", id)
//	if errors.Is(err, errors.ErrCodeInvalidModel) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
//
// The CLI maps codes to process exit statuses with [ExitCode].
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidModel  Code = "INVALID_MODEL"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidMode   Code = "INVALID_MODE"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeUnknownPreset Code = "UNKNOWN_PRESET"
	ErrCodeUnknownLayer  Code = "UNKNOWN_LAYER"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its code,
// followed by the cause when there is one. Other errors are returned as is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Exit statuses returned by [ExitCode].
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitUnsupported = 3
)

// ExitCode maps an error to a process exit status. Bad input (invalid or
// unknown values, missing files) exits with ExitUsage, a missing external
// converter with ExitUnsupported, everything else with ExitFailure.
func ExitCode(err error) int {
	code := GetCode(err)
	switch {
	case code == ErrCodeUnsupported:
		return ExitUnsupported
	case strings.HasPrefix(string(code), "INVALID_"),
		strings.HasPrefix(string(code), "UNKNOWN_"),
		code == ErrCodeFileNotFound, code == ErrCodeNotFound:
		return ExitUsage
	}
	return ExitFailure
}
