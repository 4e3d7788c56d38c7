package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("invalid input")
	ErrForbidden   = errors.New("forbidden")
	ErrNotEligible = errors.New("not eligible")
	ErrConflict    = errors.New("conflict")
	ErrInternal    = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// Validation creates a 400 error for malformed or missing input.
func Validation(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// NotEligible creates a 403 error for a business-rule gate, distinct from
// plain authorization failure.
func NotEligible(message string) *AppError {
	return &AppError{
		Code:    "NOT_ELIGIBLE",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrNotEligible,
	}
}

// Conflict creates a 409 error for a duplicate/uniqueness violation.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Internal creates a 500 error wrapping a store or transport failure.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing message for the given error. Internal
// detail never leaks through this path.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "an internal error occurred"
	}
	return err.Error()
}
