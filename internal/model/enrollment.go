package model

import "time"

// Enrollment sources.
const (
	SourcePayment = "payment"
	SourceAdmin   = "admin"
)

// Enrollment grants one user access to one course and tracks completion.
// Progress is a percentage in [0,100] with two decimals.
type Enrollment struct {
	ID               uint64    `json:"id"`
	UserID           uint64    `json:"user_id"`
	CourseID         uint64    `json:"course_id"`
	Progress         float64   `json:"progress"`
	CompletedLessons []string  `json:"completed_lessons"`
	Source           string    `json:"source"`
	EnrolledAt       time.Time `json:"enrolled_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
