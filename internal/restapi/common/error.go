package common

import (
	"net/url"
	"time"
)

type APIErrorMessage string

const (
	AuthUnauthorizedMessage  APIErrorMessage = "auth.unauthorized"
	AuthForbiddenMessage     APIErrorMessage = "auth.forbidden"
	RequestParseErrorMessage APIErrorMessage = "request.parse.failed"
	DepositNotFoundMessage   APIErrorMessage = "deposit.id.notfound"
	RequestConflictMessage   APIErrorMessage = "request.conflict"
	InternalErrorMessage     APIErrorMessage = "http.error.internal"
	UnknownErrorMessage      APIErrorMessage = "http.error.unknown"
)

// APIError is the generic return type for any Failure
// during endpoint operations
type APIError struct {
	RequestID string          `json:"requestid"`
	Message   APIErrorMessage `json:"message"`
	Timestamp string          `json:"timestamp"`
	Details   url.Values      `json:"details,omitempty"`
}

// NewAPIError creates a new instance of the `APIError` which will be returned
// to the client if an operation fails
func NewAPIError(reqID string, message APIErrorMessage, details url.Values) *APIError {
	return &APIError{
		RequestID: reqID,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Details:   details,
	}
}
