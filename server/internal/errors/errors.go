// Package errors defines the error taxonomy shared by the service layer and
// the transport boundary.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping.
type Code string

const (
	// CodeNotFound indicates the entity id has no matching row.
	CodeNotFound Code = "NOT_FOUND"
	// CodeForbidden indicates the entity exists but belongs to another owner.
	CodeForbidden Code = "FORBIDDEN"
	// CodeInvalidArgument indicates input violates length/type/range constraints.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeConfiguration indicates a startup configuration problem, such as an
	// encoder dimensionality mismatch with the storage schema. Fatal, never
	// produced per-request.
	CodeConfiguration Code = "CONFIGURATION"
	// CodeInternal indicates an unclassified failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a code-carrying error.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound creates a not-found error. The message is surfaced verbatim as the
// response detail.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates an owner-mismatch error. Distinguishing this from
// NotFound is deliberate: owner identity is authenticated upstream, so the
// caller gets actionable diagnostics rather than an information leak.
func Forbidden(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument creates a validation error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Configuration creates a fatal configuration error.
func Configuration(cause error, format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf extracts the taxonomy message from an error chain, or "" when the
// error carries no code.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
