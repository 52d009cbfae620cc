package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// maxWebhookBytes bounds the Stripe event body.
const maxWebhookBytes = 64 << 10

// CheckoutHandler exposes hosted checkout and its reconciliation.
type CheckoutHandler struct {
	Checkout Checkouter
}

func NewCheckoutHandler(co Checkouter) *CheckoutHandler { return &CheckoutHandler{Checkout: co} }

type checkoutReq struct {
	CourseID  uint64 `json:"course_id" validate:"required,gt=0"`
	OriginURL string `json:"origin_url" validate:"required,http_url"`
}

// CreateCheckout handles POST /api/payment/create-checkout.
func (h *CheckoutHandler) CreateCheckout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	var req checkoutReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Checkout.CreateCheckout(ctx, uid, req.CourseID, strings.TrimRight(req.OriginURL, "/"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Status handles GET /api/payment/status/:session_id.  Polling is one of
// the two reconciliation triggers; the webhook is the other.
func (h *CheckoutHandler) Status(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	sid := strings.TrimSpace(c.Param("session_id"))
	if sid == "" {
		return badRequest(c, "session_id required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Checkout.ReconcileForUser(ctx, uid, sid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// StripeWebhook handles POST /api/webhook/stripe.  The raw body is needed
// for signature verification, so it is read before any binding.
func (h *CheckoutHandler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return badRequest(c, "unreadable body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Checkout.HandleWebhook(ctx, payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
