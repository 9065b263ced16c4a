// Package errors provides coded errors shared by the server, the client
// and the transform library.
//
// Codes are machine readable and map onto HTTP status codes in the
// server:
//
//	err := errors.New(errors.ErrCodeInvalidInput, "bad file name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // 400
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidTransform Code = "INVALID_TRANSFORM"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeUploadRejected Code = "UPLOAD_REJECTED"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

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
func Is(err error, code Code) bool {
	return GetCode(err) == code
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

// As is errors.As from the standard library, re-exported so callers
// importing this package as "errors" keep access to it.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// UserMessage returns the message without the code prefix for *Error
// values and the plain error string otherwise.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code a handler should reply with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeInvalidTransform, ErrCodeInvalidConfig, ErrCodeUploadRejected:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
