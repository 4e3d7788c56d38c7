package validator

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate(req).
type RequestValidator struct {
	validate *validator.Validate
}

// New creates a new RequestValidator
func New() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate validates the given struct and wraps failures as HTTP 400 errors.
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
