package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequireRole lets the request through only when the token's role is one of
// roles. It must run after JWT.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyUserRole).(string)
			if role == "" {
				return c.JSON(http.StatusForbidden, errorBody("missing role"))
			}
			if !slices.Contains(roles, role) {
				Logger(c).Info("role denied",
					zap.String("user_id", UserIDFromContext(c)),
					zap.String("role", role),
					zap.Strings("required", roles),
					zap.String("path", c.Path()),
				)
				return c.JSON(http.StatusForbidden, errorBody("insufficient permissions"))
			}
			return next(c)
		}
	}
}
