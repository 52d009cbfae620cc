package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
)

// EnrollmentRepo stores enrollments and their completed-lesson sets.
type EnrollmentRepo struct {
	db *sql.DB
}

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{db: db} }

// Get returns the enrollment for (userID, courseID) with its completed
// lesson keys in completion order.
func (r *EnrollmentRepo) Get(ctx context.Context, userID, courseID uint64) (model.Enrollment, error) {
	var e model.Enrollment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, course_id, progress, source, enrolled_at, updated_at
		   FROM enrollments WHERE user_id = ? AND course_id = ?`, userID, courseID).
		Scan(&e.ID, &e.UserID, &e.CourseID, &e.Progress, &e.Source, &e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		return e, notFound(err)
	}
	e.CompletedLessons, err = r.completed(ctx, e.ID)
	return e, err
}

func (r *EnrollmentRepo) completed(ctx context.Context, enrollmentID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT lesson_key FROM enrollment_lessons WHERE enrollment_id = ? ORDER BY completed_at, lesson_key",
		enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// AddCompletedLesson set-adds a lesson key.  Repeating the call is a no-op.
func (r *EnrollmentRepo) AddCompletedLesson(ctx context.Context, enrollmentID uint64, lessonKey string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO enrollment_lessons (enrollment_id, lesson_key) VALUES (?, ?)",
		enrollmentID, lessonKey)
	return err
}

// CompletedLessons returns the completed lesson keys of an enrollment.
func (r *EnrollmentRepo) CompletedLessons(ctx context.Context, enrollmentID uint64) ([]string, error) {
	return r.completed(ctx, enrollmentID)
}

// SetProgress stores the derived percentage.
func (r *EnrollmentRepo) SetProgress(ctx context.Context, enrollmentID uint64, progress float64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE enrollments SET progress = ? WHERE id = ?", progress, enrollmentID)
	return err
}

// Grant enrolls userID in courseID outside of a payment (admin grants).
// It follows the same create-if-absent path as payment fulfilment and
// reports whether a new enrollment was created.  An unknown user or course
// yields ErrNotFound.
func (r *EnrollmentRepo) Grant(ctx context.Context, userID, courseID uint64, source string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var id uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM courses WHERE id = ? FOR UPDATE", courseID).Scan(&id); err != nil {
		return false, notFound(err)
	}
	// INSERT IGNORE turns a missing user into a warning, so check first.
	if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? LOCK IN SHARE MODE", userID).Scan(&id); err != nil {
		return false, notFound(err)
	}
	created, err := grantTx(ctx, tx, userID, courseID, source)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return created, nil
}

// grantTx is the create-if-absent enrollment step shared by payment
// fulfilment and admin grants.  Each statement is idempotent on its own:
// the enrollment insert is guarded by the (user, course) unique key, the
// counter moves only when that insert created a row, and user_courses is
// a set keyed by its primary key.
func grantTx(ctx context.Context, tx *sql.Tx, userID, courseID uint64, source string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO enrollments (user_id, course_id, progress, source) VALUES (?, ?, 0, ?)",
		userID, courseID, source)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if _, err := tx.ExecContext(ctx,
			"UPDATE courses SET students_count = students_count + 1 WHERE id = ?", courseID); err != nil {
			return false, err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO user_courses (user_id, course_id) VALUES (?, ?)", userID, courseID); err != nil {
		return false, err
	}
	return n == 1, nil
}

// EnrolledCourse pairs a course (without lessons) with the caller's
// progress in it.
type EnrolledCourse struct {
	model.Course
	Progress         float64   `json:"progress"`
	CompletedLessons []string  `json:"completed_lessons"`
	EnrolledAt       time.Time `json:"enrolled_at"`
}

// ListByUser returns the user's enrolled courses, most recent first.
func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID uint64) ([]EnrolledCourse, error) {
	const q = `SELECT c.id, c.title, c.description, c.price_cents, c.currency, c.thumbnail, c.category,
			c.instructor, c.duration, c.course_type, c.external_url, c.students_count, c.created_at, c.updated_at,
			e.id, e.progress, e.enrolled_at
		FROM enrollments e JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = ? ORDER BY e.enrolled_at DESC, e.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	type row struct {
		item         EnrolledCourse
		enrollmentID uint64
	}
	var list []row
	for rows.Next() {
		var (
			it  row
			ext sql.NullString
			c   = &it.item.Course
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.PriceCents, &c.Currency, &c.Thumbnail,
			&c.Category, &c.Instructor, &c.Duration, &c.Type, &ext, &c.StudentsCount, &c.CreatedAt,
			&c.UpdatedAt, &it.enrollmentID, &it.item.Progress, &it.item.EnrolledAt); err != nil {
			rows.Close()
			return nil, err
		}
		if ext.Valid {
			c.ExternalURL = &ext.String
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]EnrolledCourse, 0, len(list))
	for _, it := range list {
		keys, err := r.completed(ctx, it.enrollmentID)
		if err != nil {
			return nil, err
		}
		it.item.CompletedLessons = keys
		out = append(out, it.item)
	}
	return out, nil
}

// Count returns the number of enrollments.
func (r *EnrollmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM enrollments").Scan(&n)
	return n, err
}
