// Package apierror defines the error taxonomy shared by the domain packages
// and its translation to HTTP status codes.
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies an error by how the caller should react to it
type Kind int

const (
	KindUnexpected Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindUnavailable
	KindStorage
)

// DefaultMessage is returned to clients for errors whose detail must stay server-side
const DefaultMessage = "An unexpected error occurred"

// Error is a domain error carrying a stable UPPER_SNAKE code
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

// New creates a coded error
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Status maps the error kind to an HTTP status code
func (e *Error) Status() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Internal is the fallback for errors that carry no code
var Internal = New(KindUnexpected, "INTERNAL_SERVER_ERROR", DefaultMessage)

// From finds the coded error in err's chain, or Internal if there is none
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
