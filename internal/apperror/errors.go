// Package apperror provides domain-specific error types for BookWorm.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to HTTP responses; raw database, Redis or
// identity-provider errors only ever travel in Internal.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// genericMessage is what clients see for anything that is not an AppError.
const genericMessage = "An unexpected error occurred. Please try again."

// AppError is a failure a handler can show to the visitor as-is.
type AppError struct {
	Code    int    `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`

	// Internal is logged, never rendered.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal == nil {
		return e.Type + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
}

// Unwrap exposes Internal so sentinels like auth.ErrInvalidCredentials can
// be matched with errors.Is.
func (e *AppError) Unwrap() error {
	return e.Internal
}

func newError(code int, typ, message string) *AppError {
	return &AppError{Code: code, Type: typ, Message: message}
}

// --- Visitor mistakes (4xx) ---

func NewBadRequest(message string) *AppError {
	return newError(http.StatusBadRequest, "bad_request", message)
}

func NewUnauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, "unauthorized", message)
}

func NewForbidden(message string) *AppError {
	return newError(http.StatusForbidden, "forbidden", message)
}

func NewNotFound(message string) *AppError {
	return newError(http.StatusNotFound, "not_found", message)
}

// NewConflict is used for duplicate accounts and for a sign-in form that is
// already being submitted.
func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, "conflict", message)
}

// NewValidation is a 422 for form input that fails validation.
func NewValidation(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, "validation_error", message)
}

// --- Server and upstream failures (5xx) ---

// NewBadGateway reports a failed identity provider round trip. The
// provider's error is kept for the logs.
func NewBadGateway(message string, err error) *AppError {
	e := newError(http.StatusBadGateway, "upstream_error", message)
	e.Internal = err
	return e
}

// NewInternal hides err behind a generic message.
func NewInternal(err error) *AppError {
	e := newError(http.StatusInternalServerError, "internal_error", genericMessage)
	e.Internal = err
	return e
}

// --- Inspection ---

func as(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// SafeMessage returns a message that can be shown to the visitor. Errors
// that are not AppErrors never leak their text.
func SafeMessage(err error) string {
	if appErr, ok := as(err); ok {
		return appErr.Message
	}
	return genericMessage
}

// SafeCode returns the status to respond with: the AppError's code, or 500.
func SafeCode(err error) int {
	if appErr, ok := as(err); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// IsCode reports whether err is an AppError carrying the given status code.
func IsCode(err error, code int) bool {
	appErr, ok := as(err)
	return ok && appErr.Code == code
}
