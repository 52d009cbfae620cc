package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/model"
)

// LiveClassHandler lists live classes and books seats in them.
type LiveClassHandler struct {
	Classes LiveClasses
	Booking Booker
	Now     func() time.Time
}

func NewLiveClassHandler(classes LiveClasses, booking Booker) *LiveClassHandler {
	return &LiveClassHandler{Classes: classes, Booking: booking, Now: time.Now}
}

// List handles GET /api/live-classes: upcoming classes, soonest first.
func (h *LiveClassHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Classes.ListUpcoming(ctx, h.Now().UTC())
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []model.LiveClass{}
	}
	return c.JSON(http.StatusOK, list)
}

type bookReq struct {
	ClassID uint64 `json:"class_id" validate:"required,gt=0"`
}

// Book handles POST /api/live-classes/book.
func (h *LiveClassHandler) Book(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	var req bookReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Booking.Book(ctx, uid, req.ClassID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Class booked successfully"})
}

// Mine handles GET /api/my-live-classes.
func (h *LiveClassHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Classes.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []model.LiveClass{}
	}
	return c.JSON(http.StatusOK, list)
}
