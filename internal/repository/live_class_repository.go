package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
)

// LiveClassRepo stores scheduled live classes and their rosters.
type LiveClassRepo struct {
	db *sql.DB
}

func NewLiveClassRepo(db *sql.DB) *LiveClassRepo { return &LiveClassRepo{db: db} }

const liveClassCols = "id, title, description, starts_at, instructor, max_participants, thumbnail, duration_min, created_at"

func scanLiveClass(s rowScanner) (model.LiveClass, error) {
	var lc model.LiveClass
	err := s.Scan(&lc.ID, &lc.Title, &lc.Description, &lc.StartsAt, &lc.Instructor, &lc.MaxParticipants,
		&lc.Thumbnail, &lc.DurationMin, &lc.CreatedAt)
	return lc, err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func roster(ctx context.Context, q queryer, classID uint64) ([]uint64, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM live_class_bookings WHERE live_class_id = ? ORDER BY booked_at, user_id", classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []uint64{}
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *LiveClassRepo) list(ctx context.Context, q string, args ...any) ([]model.LiveClass, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []model.LiveClass
	for rows.Next() {
		lc, err := scanLiveClass(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, lc)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].EnrolledUsers, err = roster(ctx, r.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []model.LiveClass{}
	}
	return out, nil
}

// ListUpcoming returns classes starting at or after now, soonest first.
func (r *LiveClassRepo) ListUpcoming(ctx context.Context, now time.Time) ([]model.LiveClass, error) {
	return r.list(ctx, "SELECT "+liveClassCols+" FROM live_classes WHERE starts_at >= ? ORDER BY starts_at, id", now)
}

// ListByUser returns every class the user has booked, soonest first.
func (r *LiveClassRepo) ListByUser(ctx context.Context, userID uint64) ([]model.LiveClass, error) {
	const q = `SELECT lc.id, lc.title, lc.description, lc.starts_at, lc.instructor, lc.max_participants,
			lc.thumbnail, lc.duration_min, lc.created_at
		FROM live_classes lc JOIN live_class_bookings b ON b.live_class_id = lc.id
		WHERE b.user_id = ? ORDER BY lc.starts_at, lc.id`
	return r.list(ctx, q, userID)
}

// GetByID returns a class with its roster.
func (r *LiveClassRepo) GetByID(ctx context.Context, id uint64) (model.LiveClass, error) {
	lc, err := scanLiveClass(r.db.QueryRowContext(ctx, "SELECT "+liveClassCols+" FROM live_classes WHERE id = ?", id))
	if err != nil {
		return lc, notFound(err)
	}
	lc.EnrolledUsers, err = roster(ctx, r.db, id)
	return lc, err
}

// Create inserts a class and populates lc.ID.
func (r *LiveClassRepo) Create(ctx context.Context, lc *model.LiveClass) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO live_classes (title, description, starts_at, instructor, max_participants, thumbnail, duration_min)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		lc.Title, lc.Description, lc.StartsAt.UTC(), lc.Instructor, lc.MaxParticipants, lc.Thumbnail, lc.DurationMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	lc.ID = uint64(id)
	if lc.EnrolledUsers == nil {
		lc.EnrolledUsers = []uint64{}
	}
	return nil
}

// Book adds userID to the roster of classID.  The class row is locked for
// the duration of the transaction and admit is called with the current
// roster; a non-nil error from admit aborts the booking and is returned
// as is.  Unknown classes yield ErrNotFound.
func (r *LiveClassRepo) Book(ctx context.Context, classID, userID uint64, admit func(*model.LiveClass) error) error {
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

	lc, err := scanLiveClass(tx.QueryRowContext(ctx,
		"SELECT "+liveClassCols+" FROM live_classes WHERE id = ? FOR UPDATE", classID))
	if err != nil {
		return notFound(err)
	}
	if lc.EnrolledUsers, err = roster(ctx, tx, classID); err != nil {
		return err
	}
	if err := admit(&lc); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO live_class_bookings (live_class_id, user_id) VALUES (?, ?)", classID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
