// Package domainerrors defines coded errors returned by services. Stores and
// infrastructure return sentinel errors (pkg/platform/sentinel); services
// translate those into coded errors so callers and transports can branch on
// the code without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers. The set is closed: transports map
// codes to status codes, tests assert on them.
type Code string

const (
	// CodeNotFound covers entities that are absent or soft-deleted. Safe to
	// treat as "operation had no effect".
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition means the current status does not permit the
	// requested operation.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeValidation covers completeness and approver-set requirements. The
	// message names the failing field or condition.
	CodeValidation Code = "validation_failed"
	// CodeForbidden means the actor lacks the required relationship to the
	// entity (not the assignee, not an assigned approver).
	CodeForbidden Code = "forbidden"
	// CodeConflict means a conflicting concurrent write was detected after
	// retries were exhausted. The whole operation is safe to retry.
	CodeConflict Code = "conflict"
	// CodeBadRequest covers malformed input at the edge.
	CodeBadRequest Code = "bad_request"
	// CodeTimeout means the operation's context expired.
	CodeTimeout Code = "timeout"
	// CodeInternal is the catch-all for unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a caller-facing message and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in a service.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
