// Package errors provides coded domain errors for the team service API.
//
// Services return typed errors; handlers and the huma error hook read the
// Code to pick an HTTP status:
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    status := domainErr.HTTPStatus()
//	}
//
// Invite rejections are not failures inside the service layer. They become
// errors only at the HTTP boundary, via Rejected, so that each reason keeps
// its own machine-readable code.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/skyblockhq/teamsvc/internal/domain"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Generic error codes.
const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION"
	CodeUsage        Code = "USAGE"
	CodeConflict     Code = "CONFLICT"
	CodeForbidden    Code = "FORBIDDEN"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeInternal     Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status for a code. Invite rejection reasons are
// valid codes too.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound, Code(domain.RejectUnknownTarget):
		return http.StatusNotFound
	case CodeValidation, CodeUsage:
		return http.StatusBadRequest
	case CodeConflict,
		Code(domain.RejectGroupFull),
		Code(domain.RejectAlreadyGrouped),
		Code(domain.RejectDuplicateInvite):
		return http.StatusConflict
	case CodeForbidden, Code(domain.RejectNoGroup), Code(domain.RejectInsufficientRank):
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRateLimited, Code(domain.RejectCooldownActive):
		return http.StatusTooManyRequests
	case Code(domain.RejectSelfInvite), Code(domain.RejectTargetUnreachable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus reports the HTTP status, so handlers can return *Error directly.
func (e *Error) GetStatus() int {
	return e.HTTPStatus()
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation   = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUsage        = &Error{Code: CodeUsage, Message: "usage error"}
	ErrConflict     = &Error{Code: CodeConflict, Message: "conflict"}
	ErrForbidden    = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrRateLimited  = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrInternal     = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Usage creates a command usage error.
func Usage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Rejected converts an invite rejection into an error whose code is the
// rejection reason.
func Rejected(rej *domain.Rejection) *Error {
	return &Error{
		Code:    Code(rej.Reason),
		Message: rejectionMessages[rej.Reason],
		Details: rej,
	}
}

var rejectionMessages = map[domain.RejectReason]string{
	domain.RejectNoGroup:           "you do not have an island or team",
	domain.RejectInsufficientRank:  "your rank is too low to invite players",
	domain.RejectGroupFull:         "your island team is full",
	domain.RejectUnknownTarget:     "unknown player",
	domain.RejectTargetUnreachable: "that player is offline",
	domain.RejectSelfInvite:        "you cannot invite yourself",
	domain.RejectCooldownActive:    "you must wait before inviting that player again",
	domain.RejectAlreadyGrouped:    "that player is already on a team",
	domain.RejectDuplicateInvite:   "you have already invited that player",
}
