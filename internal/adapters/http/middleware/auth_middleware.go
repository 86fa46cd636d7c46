package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

const identityContextKey = "starweb.identity"

// PrincipalResolver turns a raw bearer token into an authenticated identity.
type PrincipalResolver interface {
	ResolveToken(ctx context.Context, token, expectedType string) (domain.Identity, error)
}

// BearerAuth rejects requests without a valid access token and stashes the
// resolved identity on the echo context for downstream guards and handlers.
func BearerAuth(resolver PrincipalResolver, logger ports.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			identity, err := resolver.ResolveToken(c.Request().Context(), token, domain.TokenTypeAccess)
			if err != nil {
				if errors.Is(err, domain.ErrAccountDisabled) {
					return c.JSON(http.StatusForbidden, map[string]string{"error": domain.ErrAccountDisabled.Error()})
				}
				logger.Debug(c.Request().Context(), "token rejected", "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.ErrTokenInvalid.Error()})
			}
			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// IdentityFrom retrieves the identity stored by BearerAuth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(identityContextKey).(domain.Identity)
	return identity, ok
}
