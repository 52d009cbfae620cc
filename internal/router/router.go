package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/handler"
	"github.com/nnacademy/academy-api/internal/middleware"
	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/utils"
)

// RegisterRoutes registers the unauthenticated pages: health check and
// the policy pages linked from checkout.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, pages *handler.PolicyHandler) {
	e.GET("/healthz", health)
	e.GET("/api/healthz", health)
	for _, p := range pages.Paths() {
		e.GET(p, pages.Page)
	}
}

// RegisterAuth registers the phone login flow under /api/auth.  otpLimit
// guards send-otp separately from the general API limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, signer utils.TokenSigner, otpLimit echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/send-otp", a.SendOTP, otpLimit)
	g.POST("/verify-otp", a.VerifyOTP)
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh token or a bearer token, so it does
	// not sit behind JWTAuth.
	g.POST("/logout", a.Logout)

	// Admin tokens share the sub claim format with students, so the role
	// gate keeps admin ids from resolving to student rows.
	me := g.Group("", middleware.JWTAuth(signer), middleware.RequireRole(model.RoleStudent))
	me.GET("/me", a.Me)
	me.PUT("/profile", a.UpdateProfile)
}
