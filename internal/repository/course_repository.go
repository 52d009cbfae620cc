package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nnacademy/academy-api/internal/model"
)

// CourseRepo provides CRUD operations for courses and their lessons.
// Lessons are owned by the course: writes replace the whole list inside
// the same transaction as the course row.
type CourseRepo struct {
	db *sql.DB
}

// NewCourseRepo returns a new CourseRepo bound to the given database.
func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// DB exposes the underlying handle for callers that need to run their own
// transaction.
func (r *CourseRepo) DB() *sql.DB { return r.db }

const courseCols = `id, title, description, price_cents, currency, thumbnail, category,
	instructor, duration, course_type, external_url, students_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(s rowScanner) (model.Course, error) {
	var (
		c   model.Course
		ext sql.NullString
	)
	err := s.Scan(&c.ID, &c.Title, &c.Description, &c.PriceCents, &c.Currency, &c.Thumbnail,
		&c.Category, &c.Instructor, &c.Duration, &c.Type, &ext, &c.StudentsCount,
		&c.CreatedAt, &c.UpdatedAt)
	if ext.Valid {
		c.ExternalURL = &ext.String
	}
	return c, err
}

// List returns all courses, newest first.  A non-empty category filters
// case-insensitively.  Lessons are not loaded.
func (r *CourseRepo) List(ctx context.Context, category string) ([]model.Course, error) {
	q := "SELECT " + courseCols + " FROM courses"
	var args []any
	if category = strings.TrimSpace(category); category != "" {
		q += " WHERE LOWER(category) = ?"
		args = append(args, strings.ToLower(category))
	}
	q += " ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns a course with its lessons in position order.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx, "SELECT "+courseCols+" FROM courses WHERE id = ?", id))
	if err != nil {
		return c, notFound(err)
	}
	c.Lessons, err = r.lessons(ctx, id)
	return c, err
}

func (r *CourseRepo) lessons(ctx context.Context, courseID uint64) ([]model.Lesson, error) {
	const q = `SELECT id, course_id, lesson_key, title, description, video_url, duration_min, position
		FROM course_lessons WHERE course_id = ? ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Lesson{}
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Key, &l.Title, &l.Description, &l.VideoURL,
			&l.DurationMin, &l.Position); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create inserts the course and its lessons, populating c.ID.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO courses (title, description, price_cents, currency, thumbnail, category,
		instructor, duration, course_type, external_url) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, c.Title, c.Description, c.PriceCents, c.Currency, c.Thumbnail,
		c.Category, c.Instructor, c.Duration, c.Type, nullString(c.ExternalURL))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	if err := r.replaceLessonsTx(ctx, tx, c.ID, c.Lessons); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update overwrites the editable columns and replaces the lesson list.
// students_count is never touched here.
func (r *CourseRepo) Update(ctx context.Context, c *model.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM courses WHERE id = ? FOR UPDATE", c.ID).Scan(&exists); err != nil {
		return notFound(err)
	}
	const q = `UPDATE courses SET title = ?, description = ?, price_cents = ?, currency = ?, thumbnail = ?,
		category = ?, instructor = ?, duration = ?, course_type = ?, external_url = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, c.Title, c.Description, c.PriceCents, c.Currency, c.Thumbnail,
		c.Category, c.Instructor, c.Duration, c.Type, nullString(c.ExternalURL), c.ID); err != nil {
		return err
	}
	if err := r.replaceLessonsTx(ctx, tx, c.ID, c.Lessons); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// replaceLessonsTx deletes and re-inserts the lessons of a course.  Keys
// must be unique within the course; a duplicate surfaces as ErrConflict.
func (r *CourseRepo) replaceLessonsTx(ctx context.Context, tx *sql.Tx, courseID uint64, lessons []model.Lesson) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_lessons WHERE course_id = ?", courseID); err != nil {
		return err
	}
	if len(lessons) == 0 {
		return nil
	}
	query := `INSERT INTO course_lessons (course_id, lesson_key, title, description, video_url, duration_min, position) VALUES `
	args := make([]any, 0, len(lessons)*7)
	for i, l := range lessons {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, courseID, l.Key, l.Title, l.Description, l.VideoURL, l.DurationMin, uint32(i))
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Delete removes a course.  Courses with payment history cannot be deleted
// and yield ErrConflict.
func (r *CourseRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		if isReferenced(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of courses.
func (r *CourseRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses").Scan(&n)
	return n, err
}
