package router

import (
	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/handler"
	"github.com/nnacademy/academy-api/internal/middleware"
	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/utils"
)

// StudentHandlers groups what RegisterStudent wires.
type StudentHandlers struct {
	Catalog      *handler.CatalogHandler
	Checkout     *handler.CheckoutHandler
	LiveClasses  *handler.LiveClassHandler
	Certificates *handler.CertificateHandler
}

// RegisterStudent registers the catalog, checkout, live class and
// certificate endpoints under /api.  The course listings go through cache;
// live classes do not, since every booking changes the seat count.
// Everything user specific requires a STUDENT token.
func RegisterStudent(e *echo.Echo, h StudentHandlers, signer utils.TokenSigner, cache echo.MiddlewareFunc) {
	api := e.Group("/api")
	api.GET("/courses", h.Catalog.ListCourses, cache)
	api.GET("/courses/:id", h.Catalog.GetCourse, cache)
	api.GET("/live-classes", h.LiveClasses.List)
	api.GET("/certificate/:id", h.Certificates.Get)
	// Stripe authenticates with its signature header, not a JWT.
	api.POST("/webhook/stripe", h.Checkout.StripeWebhook)

	g := api.Group("",
		middleware.JWTAuth(signer),
		middleware.RequireRole(model.RoleStudent),
	)
	g.GET("/my-courses", h.Catalog.MyCourses)
	g.POST("/courses/:id/progress", h.Catalog.MarkProgress)
	g.GET("/courses/:id/lessons/:lesson_id/play", h.Catalog.PlayLesson)
	g.POST("/payment/create-checkout", h.Checkout.CreateCheckout)
	g.GET("/payment/status/:session_id", h.Checkout.Status)
	g.POST("/live-classes/book", h.LiveClasses.Book)
	g.GET("/my-live-classes", h.LiveClasses.Mine)
	g.GET("/my-certificates", h.Certificates.Mine)
}
