package model

import "time"

// Payment transaction statuses.  Pending is the only non-terminal state.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentExpired = "expired"
)

// PaymentTransaction records one hosted checkout session.  SessionID is
// the provider's id and is unique.
type PaymentTransaction struct {
	ID             uint64     `json:"id"`
	SessionID      string     `json:"session_id"`
	UserID         uint64     `json:"user_id"`
	CourseID       uint64     `json:"course_id"`
	AmountCents    uint32     `json:"amount_cents"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	ProviderStatus string     `json:"payment_status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

// Terminal reports whether the status can no longer change.
func (p *PaymentTransaction) Terminal() bool { return p.Status != PaymentPending }
