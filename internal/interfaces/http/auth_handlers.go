package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/application"
	"github.com/zhengyingxiong/starweb/internal/domain"
)

type AuthHandler struct {
	auth *application.AuthService
}

func NewAuthHandler(auth *application.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" form:"token" validate:"required"`
}

// Login accepts form-encoded or JSON credentials, matching the original
// OAuth2-style password flow.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	issued, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, issued)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	refreshed, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, refreshed)
}

// Me resolves an access token handed in the body and echoes the principal.
func (h *AuthHandler) Me(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, &domain.ValidationError{Field: "body", Message: "malformed request"})
	}
	if err := c.Validate(&req); err != nil {
		return handleError(c, err)
	}
	identity, err := h.auth.ResolveToken(c.Request().Context(), req.Token, domain.TokenTypeAccess)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"token_type": domain.TokenTypeAccess,
		"user":       identity,
	})
}
