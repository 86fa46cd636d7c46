package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zhengyingxiong/starweb/internal/application"
	"github.com/zhengyingxiong/starweb/internal/domain"
)

// Guard enforces an authorization predicate on every request in the group.
// It expects BearerAuth to have run first.
func Guard(pred application.Predicate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			if err := pred.Evaluate(c.Request().Context(), identity); err != nil {
				if reason, ok := domain.DenialReason(err); ok {
					return c.JSON(http.StatusForbidden, map[string]string{"error": reason})
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}
			return next(c)
		}
	}
}
