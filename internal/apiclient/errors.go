package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	dErrors "taxdesk/pkg/domain-errors"
)

// Error is a normalized failure. A zero Status means no response was
// received. The wrapped domain error carries the code, so dErrors.HasCode
// works on it.
type Error struct {
	Message string         `json:"message"`
	Code    dErrors.Code   `json:"code"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return dErrors.New(e.Code, e.Message)
}

const (
	msgTimeout      = "Request timed out. Please check your connection and try again."
	msgNetwork      = "Unable to connect to server. Please check your internet connection or try again later."
	msgUnauthorized = "Session expired. Please log in again."
	msgForbidden    = "You do not have permission to perform this action."
	msgNotFound     = "Resource not found."
	msgServer       = "Server error. Please try again later."
	msgCircuitOpen  = "The server is unavailable. Please try again shortly."
	msgCanceled     = "Request was cancelled."
)

func timeoutError() *Error {
	return &Error{Message: msgTimeout, Code: dErrors.CodeTimeout, Status: http.StatusRequestTimeout}
}

func networkError(msg string) *Error {
	return &Error{Message: msg, Code: dErrors.CodeNetworkError}
}

// errorBody accepts both this service's error shape and the generic
// {message, code, details} shape.
type errorBody struct {
	Message     string         `json:"message"`
	Error       string         `json:"error"`
	Description string         `json:"error_description"`
	Details     map[string]any `json:"details"`
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(status int, body []byte) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	serverMsg := eb.Message
	if serverMsg == "" {
		serverMsg = eb.Description
	}
	if serverMsg == "" {
		serverMsg = eb.Error
	}
	fallback := serverMsg
	if fallback == "" {
		fallback = fmt.Sprintf("HTTP Error: %d %s", status, http.StatusText(status))
	}

	e := &Error{Status: status, Details: eb.Details}
	switch {
	case status == http.StatusUnauthorized:
		e.Code, e.Message = dErrors.CodeUnauthorized, msgUnauthorized
	case status == http.StatusForbidden:
		e.Code, e.Message = dErrors.CodePermissionDenied, msgForbidden
	case status == http.StatusNotFound:
		e.Code, e.Message = dErrors.CodeNotFound, msgNotFound
		if serverMsg != "" {
			e.Message = serverMsg
		}
	case status == http.StatusTooManyRequests:
		e.Code, e.Message = dErrors.CodeTooManyRequests, fallback
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Code, e.Message = dErrors.CodeValidation, fallback
	case status >= http.StatusInternalServerError:
		e.Code, e.Message = dErrors.CodeServerError, msgServer
	default:
		e.Code, e.Message = dErrors.CodeBadRequest, fallback
	}
	return e
}
