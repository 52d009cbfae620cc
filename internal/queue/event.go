// Package queue defines message payloads exchanged over the message broker.
package queue

// EnrollmentQueueName is the durable queue carrying EnrollmentConfirmedEvent.
const EnrollmentQueueName = "enrollment.confirmed"

// EnrollmentConfirmedEvent is published once per newly created enrollment.
// Re-deliveries of the same payment never produce a second event because
// publishing only happens when the enrollment insert created a row.
type EnrollmentConfirmedEvent struct {
	UserID      uint64 `json:"user_id"`
	CourseID    uint64 `json:"course_id"`
	CourseTitle string `json:"course_title"`
	SessionID   string `json:"session_id,omitempty"`
	AmountCents uint32 `json:"amount_cents"`
	Currency    string `json:"currency"`
	Source      string `json:"source"`
	ConfirmedAt string `json:"confirmed_at"`
}
