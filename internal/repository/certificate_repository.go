package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
)

// CertificateRepo stores completion certificates.
type CertificateRepo struct {
	db *sql.DB
}

func NewCertificateRepo(db *sql.DB) *CertificateRepo { return &CertificateRepo{db: db} }

// CreateIfAbsent issues a certificate for (userID, courseID) unless one
// exists, and returns whichever row is stored.  code is only used when a
// new row is inserted.
func (r *CertificateRepo) CreateIfAbsent(ctx context.Context, userID, courseID uint64, code string, completedAt time.Time) (model.Certificate, bool, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO certificates (code, user_id, course_id, completed_at) VALUES (?, ?, ?, ?)",
		code, userID, courseID, completedAt.UTC())
	if err != nil {
		return model.Certificate{}, false, err
	}
	n, _ := res.RowsAffected()
	var c model.Certificate
	err = r.db.QueryRowContext(ctx,
		"SELECT id, code, user_id, course_id, completed_at, issued_at FROM certificates WHERE user_id = ? AND course_id = ?",
		userID, courseID).Scan(&c.ID, &c.Code, &c.UserID, &c.CourseID, &c.CompletedAt, &c.IssuedAt)
	return c, n == 1, notFound(err)
}

const certViewQuery = `SELECT ce.code, COALESCE(u.name, ''), ce.course_id, co.title, ce.completed_at, ce.issued_at
	FROM certificates ce
	JOIN users u ON u.id = ce.user_id
	JOIN courses co ON co.id = ce.course_id`

// GetByCode returns the printable view of a certificate.
func (r *CertificateRepo) GetByCode(ctx context.Context, code string) (model.CertificateView, error) {
	var v model.CertificateView
	err := r.db.QueryRowContext(ctx, certViewQuery+" WHERE ce.code = ?", code).
		Scan(&v.Code, &v.StudentName, &v.CourseID, &v.CourseTitle, &v.CompletedAt, &v.IssuedAt)
	return v, notFound(err)
}

// ListByUser returns the user's certificates, newest first.
func (r *CertificateRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CertificateView, error) {
	rows, err := r.db.QueryContext(ctx, certViewQuery+" WHERE ce.user_id = ? ORDER BY ce.issued_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CertificateView{}
	for rows.Next() {
		var v model.CertificateView
		if err := rows.Scan(&v.Code, &v.StudentName, &v.CourseID, &v.CourseTitle, &v.CompletedAt, &v.IssuedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
