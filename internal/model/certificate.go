package model

import "time"

// Certificate is issued once per (user, course) when progress reaches 100.
// Code is the public identifier printed on the certificate.
type Certificate struct {
	ID          uint64    // certificates.id
	Code        string    // certificates.code
	UserID      uint64    // certificates.user_id
	CourseID    uint64    // certificates.course_id
	CompletedAt time.Time // certificates.completed_at
	IssuedAt    time.Time // certificates.issued_at
}

// CertificateView joins a certificate with the names printed on it.
type CertificateView struct {
	Code        string    `json:"certificate_id"`
	StudentName string    `json:"student_name"`
	CourseID    uint64    `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	CompletedAt time.Time `json:"completion_date"`
	IssuedAt    time.Time `json:"issued_date"`
}
