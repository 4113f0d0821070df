package schemas

import (
	"errors"
	"net/http"
)

// ErrorKind is the closed set of failure categories that can cross a service boundary.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindBadRequest   ErrorKind = "BAD_REQUEST"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindInternal     ErrorKind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks against a CustomError's kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

var kindSentinels = map[ErrorKind]error{
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindBadRequest:   ErrBadRequest,
	KindUnauthorized: ErrUnauthorized,
	KindForbidden:    ErrForbidden,
	KindInternal:     ErrInternal,
}

var kindStatus = map[ErrorKind]int{
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindBadRequest:   http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindInternal:     http.StatusInternalServerError,
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// CustomError is the domain error carried from the repository up to the response envelope.
// Field names the offending input when the failure is tied to one (e.g. a uniqueness conflict).
type CustomError struct {
	Kind    ErrorKind    `json:"kind"`
	Message string       `json:"message"`
	Field   string       `json:"field,omitempty"`
	Details []FieldError `json:"details,omitempty"`
	cause   error
}

func (e *CustomError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.cause
}

// Is matches the kind sentinel, so errors.Is(err, schemas.ErrNotFound) works on wrapped errors.
func (e *CustomError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// StatusCode returns the HTTP status associated with the error kind.
func (e *CustomError) StatusCode() int {
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func NewNotFound(message string) *CustomError {
	return &CustomError{Kind: KindNotFound, Message: message}
}

func NewConflict(message, field string) *CustomError {
	return &CustomError{Kind: KindConflict, Message: message, Field: field}
}

func NewBadRequest(message string) *CustomError {
	return &CustomError{Kind: KindBadRequest, Message: message}
}

// NewValidation builds a BadRequest error listing every invalid field.
func NewValidation(message string, details ...FieldError) *CustomError {
	return &CustomError{Kind: KindBadRequest, Message: message, Details: details}
}

func NewUnauthorized(message string) *CustomError {
	return &CustomError{Kind: KindUnauthorized, Message: message}
}

func NewForbidden(message string) *CustomError {
	return &CustomError{Kind: KindForbidden, Message: message}
}

func NewInternal(cause error) *CustomError {
	return &CustomError{Kind: KindInternal, Message: InternalServerErrorMessage, cause: cause}
}

// WithCause attaches the underlying error without changing the user-facing message.
func (e *CustomError) WithCause(cause error) *CustomError {
	e.cause = cause
	return e
}

// AsCustomError extracts a CustomError from err, treating anything else as an internal error.
func AsCustomError(err error) *CustomError {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return NewInternal(err)
}
