package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhengyingxiong/starweb/internal/domain"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation error", &domain.ValidationError{Field: "username", Message: "username already exists"}, http.StatusBadRequest},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"wrapped invalid input", fmt.Errorf("%w: permission has child permissions", domain.ErrInvalidInput), http.StatusBadRequest},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"token invalid", domain.ErrTokenInvalid, http.StatusUnauthorized},
		{"wrong token type", domain.ErrWrongTokenType, http.StatusUnauthorized},
		{"user not found", domain.ErrUserNotFound, http.StatusUnauthorized},
		{"account disabled", domain.ErrAccountDisabled, http.StatusForbidden},
		{"permission denial", &domain.PermissionDeniedError{Reason: "requires user.manage"}, http.StatusForbidden},
		{"role denial", &domain.RoleDeniedError{Reason: "requires admin"}, http.StatusForbidden},
		{"access denial", &domain.AccessDeniedError{Reason: "requires superadmin privileges"}, http.StatusForbidden},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"unknown error", errors.New("dynamodb down"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, handleError(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleError_InternalDetailsDoNotLeak(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handleError(c, errors.New("conn refused at 10.0.0.5:8000")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestValidator_FlagsMissingFields(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&loginRequest{Username: "alice"})
	assert.Error(t, err)

	err = v.Validate(&loginRequest{Username: "alice", Password: "pass123"})
	assert.NoError(t, err)
}
