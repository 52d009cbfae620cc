package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/repository"
	"github.com/nnacademy/academy-api/internal/service"
)

const requestTimeout = 10 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID reads the subject stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, service.ErrNotAuthenticated
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// statusFor maps service and repository sentinels to an HTTP status and
// the message shown to the client.  Anything unrecognised is a 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, service.ErrNotEnrolled):
		return http.StatusNotFound, service.ErrNotEnrolled.Error()
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrInvalidOTP):
		return http.StatusBadRequest, "invalid otp"
	case errors.Is(err, service.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid phone number"
	case errors.Is(err, service.ErrInvalidWebhook):
		return http.StatusBadRequest, "invalid webhook"
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream provider unavailable"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	for _, s := range []error{
		service.ErrAlreadyEnrolled,
		service.ErrAlreadyBooked,
		service.ErrClassFull,
		service.ErrExternalCourse,
	} {
		if errors.Is(err, s) {
			return http.StatusBadRequest, s.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// fail writes err as {"error": ...}.  Server errors are logged with the
// request path; the client gets a generic message.
func fail(c echo.Context, err error) error {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}
