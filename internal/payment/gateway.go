// Package payment wraps the hosted checkout provider.
package payment

import (
	"context"
	"errors"
)

// Checkout session states as reported by the provider.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"

	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// Webhook event types the checkout flow reacts to.
const (
	EventSessionCompleted      = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventSessionExpired        = "checkout.session.expired"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
)

// SessionRequest describes a one-item hosted checkout.
type SessionRequest struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Session is a created checkout session.
type Session struct {
	ID  string
	URL string
}

// Status is the provider's current view of a session.
type Status struct {
	SessionStatus string
	PaymentStatus string
}

// Paid reports whether the provider has captured the payment.
func (s Status) Paid() bool { return s.PaymentStatus == PaymentPaid }

// Event is a verified webhook notification about a checkout session.
type Event struct {
	ID            string
	Type          string
	SessionID     string
	PaymentStatus string
}

// ErrSignature is returned by VerifyWebhook when the payload is not
// authentic or cannot be parsed.
var ErrSignature = errors.New("invalid webhook signature")

// Gateway is the checkout provider contract used by the checkout service.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	GetStatus(ctx context.Context, sessionID string) (Status, error)
	VerifyWebhook(payload []byte, signature string) (Event, error)
}
