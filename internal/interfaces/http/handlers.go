package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

// Validator adapts go-playground/validator to echo's Validate hook.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// handleError is the single place HTTP status codes are decided.
func handleError(c echo.Context, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: fieldErrs.Error()})
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if errors.Is(err, domain.ErrInvalidCredentials) ||
		errors.Is(err, domain.ErrTokenInvalid) ||
		errors.Is(err, domain.ErrWrongTokenType) ||
		errors.Is(err, domain.ErrUserNotFound) {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	}
	if errors.Is(err, domain.ErrAccountDisabled) {
		return c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	}
	if reason, ok := domain.DenialReason(err); ok {
		return c.JSON(http.StatusForbidden, errorResponse{Error: reason})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
