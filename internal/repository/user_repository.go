package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nnacademy/academy-api/internal/model"
)

// UserRepo persists students keyed by phone number.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,phone,name,email,role,created_at,updated_at"

// FindOrCreateByPhone returns the user owning phone, creating an empty
// profile first when none exists.  created reports whether this call
// inserted the row.  The unique key on phone makes concurrent first logins
// converge on one record.
func (r *UserRepo) FindOrCreateByPhone(ctx context.Context, phone string) (model.User, bool, error) {
	phone = strings.TrimSpace(phone)
	res, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO users (phone, role) VALUES (?, ?)", phone, model.RoleStudent)
	if err != nil {
		return model.User{}, false, err
	}
	n, _ := res.RowsAffected()
	u, err := r.GetByPhone(ctx, phone)
	return u, n == 1, err
}

// GetByPhone fetches a user by phone.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE phone=? LIMIT 1", phone))
	if err != nil {
		return u, notFound(err)
	}
	u.CourseIDs, err = r.courseIDs(ctx, u.ID)
	return u, err
}

// GetByID fetches a user by id together with the enrolled course ids.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		return u, notFound(err)
	}
	u.CourseIDs, err = r.courseIDs(ctx, u.ID)
	return u, err
}

// UpdateProfile overwrites the optional profile fields.  A nil pointer
// leaves the column unchanged.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, email *string) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=COALESCE(?, name), email=COALESCE(?, email) WHERE id=?",
		nullString(name), nullString(email), id)
	if err != nil {
		return model.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 when values are unchanged, so confirm existence.
		if _, err := r.GetByID(ctx, id); err != nil {
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Count returns the number of registered students.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (r *UserRepo) courseIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT course_id FROM user_courses WHERE user_id=? ORDER BY added_at, course_id", userID)
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

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u     model.User
		name  sql.NullString
		email sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Phone, &name, &email, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return u, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	if email.Valid {
		u.Email = &email.String
	}
	return u, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
