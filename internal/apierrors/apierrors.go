// Package apierrors holds errors that carry the HTTP status they should be reported with.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

type StatusDetails struct {
	Code    int
	Message string
	Details string
}

type APIStatus interface {
	Status() StatusDetails
}

type statusError struct {
	status StatusDetails
}

func (s *statusError) Error() string {
	if s.status.Details == "" {
		return s.status.Message
	}
	return fmt.Sprintf("%s: %s", s.status.Message, s.status.Details)
}

func (s *statusError) Status() StatusDetails {
	return s.status
}

func newStatusError(code int, message string, details string) error {
	return &statusError{
		status: StatusDetails{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func NewBadRequest(details string) error {
	return newStatusError(http.StatusBadRequest, "request.parse.failed", details)
}

func NewUnauthorized(details string) error {
	return newStatusError(http.StatusUnauthorized, "auth.unauthorized", details)
}

func NewForbidden(details string) error {
	return newStatusError(http.StatusForbidden, "auth.forbidden", details)
}

func NewNotFound(details string) error {
	return newStatusError(http.StatusNotFound, "deposit.id.notfound", details)
}

func NewConflict(details string) error {
	return newStatusError(http.StatusConflict, "request.conflict", details)
}

func NewInternalServerError(details string) error {
	return newStatusError(http.StatusInternalServerError, "unknown", details)
}

// NewBadGateway reports a failing downstream. The message should name what failed.
func NewBadGateway(message string, details string) error {
	return newStatusError(http.StatusBadGateway, message, details)
}

// AsAPIStatus returns the status carried somewhere in err's chain, or nil.
func AsAPIStatus(err error) APIStatus {
	var s APIStatus
	if errors.As(err, &s) {
		return s
	}
	return nil
}

func hasCode(err error, code int) bool {
	if s := AsAPIStatus(err); s != nil {
		return s.Status().Code == code
	}
	return false
}

func IsBadRequestError(err error) bool {
	return hasCode(err, http.StatusBadRequest)
}

func IsUnauthorizedError(err error) bool {
	return hasCode(err, http.StatusUnauthorized)
}

func IsForbiddenError(err error) bool {
	return hasCode(err, http.StatusForbidden)
}

func IsNotFoundError(err error) bool {
	return hasCode(err, http.StatusNotFound)
}

func IsConflictError(err error) bool {
	return hasCode(err, http.StatusConflict)
}

func IsInternalServerError(err error) bool {
	return hasCode(err, http.StatusInternalServerError)
}

func IsBadGatewayError(err error) bool {
	return hasCode(err, http.StatusBadGateway)
}
