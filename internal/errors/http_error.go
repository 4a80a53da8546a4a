package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError so callers can branch on it without parsing messages.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindGateway      Kind = "gateway"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// AppError is the error type returned by the service layer. Message is safe to
// show to end users; Err holds the underlying cause, if any.
type AppError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGateway:
		return http.StatusBadGateway
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string, details map[string]any) *AppError {
	e := newError(KindValidation, message, nil)
	e.Details = details
	return e
}

func NotFound(resource, id string) *AppError {
	return newError(KindNotFound, fmt.Sprintf("%s '%s' not found", resource, id), nil)
}

func Conflict(message string) *AppError {
	return newError(KindConflict, message, nil)
}

func Gateway(message string, err error) *AppError {
	return newError(KindGateway, message, err)
}

func Unauthorized(message string) *AppError {
	return newError(KindUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return newError(KindForbidden, message, nil)
}

func Internal(message string, err error) *AppError {
	return newError(KindInternal, message, err)
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
