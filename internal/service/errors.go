// Package service holds the business rules of the academy: OTP login,
// checkout and enrollment, lesson progress and live-class booking.
// Persistence and third-party providers are injected as interfaces.
package service

import (
	"errors"

	"github.com/nnacademy/academy-api/internal/otp"
)

// Sentinel errors returned by the services.  Handlers map them to HTTP
// status codes with errors.Is; wrapped context is for logs only.
var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNotFound            = errors.New("not found")
	ErrInvalidOTP          = errors.New("invalid or expired otp")
	ErrInvalidPhone        = otp.ErrInvalidPhone
	ErrAlreadyEnrolled     = errors.New("already enrolled in this course")
	ErrAlreadyBooked       = errors.New("already booked for this class")
	ErrClassFull           = errors.New("class is full")
	ErrNotEnrolled         = errors.New("enrollment not found")
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")
	ErrInvalidWebhook      = errors.New("invalid webhook")
	ErrExternalCourse      = errors.New("external courses cannot be purchased")
)
