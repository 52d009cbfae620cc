package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// RequireRole runs after JWTAuth.  Students and admins share one token
// format, so the role claim is the only thing separating /api/admin from
// the student routes.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if slices.Contains(roles, role) {
				return next(c)
			}
			log.Debugf("role %q denied on %s %s", role, c.Request().Method, c.Path())
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
}
