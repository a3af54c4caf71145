package webutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds reported in the "error" field of every error response.
const (
	KindValidation         = "ValidationError"
	KindMissingToken       = "MissingToken"
	KindMalformedToken     = "MalformedToken"
	KindExpiredToken       = "ExpiredToken"
	KindUserNotFound       = "UserNotFound"
	KindInvalidCredentials = "InvalidCredentials"
	KindForbidden          = "Forbidden"
	KindBanned             = "Banned"
	KindNotFound           = "NotFound"
	KindDuplicateUsername  = "DuplicateUsername"
	KindDuplicateEmail     = "DuplicateEmail"
	KindTooManyRequests    = "TooManyRequests"
	KindInternal           = "InternalError"
)

const (
	msgBadRequest      = "Bad Request"
	msgNotFound        = "Resource not found"
	msgInternalServer  = "Internal Server Error"
	msgForbidden       = "Forbidden"
	msgTooManyRequests = "Too many requests, slow down"
)

// Represents an error with an associated HTTP status code,
// a machine-readable kind and a user-facing message.
type HTTPError struct {
	cause   error  // The underlying error, can be nil
	Code    int    // HTTP status code
	Kind    string // One of the Kind constants
	Field   string // Offending input field for validation errors
	Message string // User-facing error message
}

// Implements the error interface.
// It returns the Message, which is intended for the HTTP response.
func (he HTTPError) Error() string {
	return he.Message
}

// Provides compatibility for errors.Is and errors.As.
func (he HTTPError) Unwrap() error {
	return he.cause
}

// Returns the defaultVal if the initial message is empty.
func defaultMessageIfEmpty(initialMsg, defaultVal string) string {
	if initialMsg == "" {
		return defaultVal
	}
	return initialMsg
}

// Creates a new HTTPError with a code, kind and message.
func NewHTTPError(code int, kind, message string) *HTTPError {
	return &HTTPError{
		cause:   errors.New(message),
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Creates a new HTTPError that wraps an existing error (cause).
func NewHTTPErrorWrap(code int, kind, message string, cause error) *HTTPError {
	return &HTTPError{
		cause:   cause,
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, KindValidation, defaultMessageIfEmpty(message, msgBadRequest))
}

func ErrBadRequestWrap(message string, cause error) *HTTPError {
	return NewHTTPErrorWrap(http.StatusBadRequest, KindValidation, defaultMessageIfEmpty(message, msgBadRequest), cause)
}

// ErrValidation reports a rule violation on a named input field.
func ErrValidation(field, message string) *HTTPError {
	he := NewHTTPError(http.StatusBadRequest, KindValidation, defaultMessageIfEmpty(message, msgBadRequest))
	he.Field = field
	return he
}

// ErrMissingField reports a required field that was absent (422).
func ErrMissingField(field string) *HTTPError {
	he := NewHTTPError(http.StatusUnprocessableEntity, KindValidation, fmt.Sprintf("%s is required", field))
	he.Field = field
	return he
}

func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, KindNotFound, defaultMessageIfEmpty(message, msgNotFound))
}

func ErrInternalServer(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, KindInternal, defaultMessageIfEmpty(message, msgInternalServer))
}

func ErrInternalServerWrap(message string, cause error) *HTTPError {
	return NewHTTPErrorWrap(http.StatusInternalServerError, KindInternal, msgInternalServer, fmt.Errorf("%s: %w", message, cause))
}

func ErrForbidden(message string) *HTTPError {
	return NewHTTPError(http.StatusForbidden, KindForbidden, defaultMessageIfEmpty(message, msgForbidden))
}

func ErrTooManyRequests() *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, KindTooManyRequests, msgTooManyRequests)
}
