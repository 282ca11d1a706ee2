// Package domainerrors defines the typed rejection taxonomy shared by services,
// stores, transport and the outbound API client.
//
// Every rejection carries a Code (machine readable, stable across transports)
// and a Message suitable for direct display to staff users.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure. Values are part of the public HTTP contract.
type Code string

const (
	// Rejections produced by the core before any mutation.
	CodePermissionDenied Code = "permission_denied"
	CodeInvalidStatus    Code = "invalid_status"
	CodeInvalidAmount    Code = "invalid_amount"
	CodeNotFound         Code = "not_found"
	CodeValidation       Code = "validation_error"
	CodeUnauthorized     Code = "unauthorized"

	// Collaborator boundary failures.
	CodeTimeout      Code = "timeout"
	CodeNetworkError Code = "network_error"
	CodeServerError  Code = "server_error"

	CodeBadRequest         Code = "bad_request"
	CodeConflict           Code = "conflict"
	CodeTooManyRequests    Code = "too_many_requests"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error with a code and a human readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping nil returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost domain error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in the chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// Is is errors.Is, re-exported so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// ToHTTPStatus maps a code to the HTTP status written by transport handlers.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidStatus, CodeInvalidAmount:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeNetworkError, CodeServerError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
