package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/handler"
	"github.com/nnacademy/academy-api/internal/middleware"
	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/utils"
)

// RegisterAdmin registers the console endpoints.  Only login is public;
// the rest require an ADMIN token.  loginLimit throttles password
// guessing.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, signer utils.TokenSigner, loginLimit echo.MiddlewareFunc) {
	e.POST("/api/admin/login", h.Login, loginLimit)

	g := e.Group("/api/admin",
		middleware.JWTAuth(signer),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/stats", h.Stats)
	g.POST("/courses", h.CreateCourse)
	g.PUT("/courses/:id", h.UpdateCourse)
	g.DELETE("/courses/:id", h.DeleteCourse)
	g.POST("/live-classes", h.CreateLiveClass)
	g.POST("/enrollments", h.GrantEnrollment)
}
