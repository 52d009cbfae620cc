package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
)

// PaymentRepo stores checkout transactions.  The status column only ever
// moves out of pending; every write below is conditioned on that so a
// late webhook can never downgrade a paid row.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, session_id, user_id, course_id, amount_cents, currency, status,
	provider_status, created_at, updated_at, paid_at`

func scanPayment(s rowScanner) (model.PaymentTransaction, error) {
	var (
		p      model.PaymentTransaction
		paidAt sql.NullTime
	)
	err := s.Scan(&p.ID, &p.SessionID, &p.UserID, &p.CourseID, &p.AmountCents, &p.Currency, &p.Status,
		&p.ProviderStatus, &p.CreatedAt, &p.UpdatedAt, &paidAt)
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return p, err
}

// CreatePending inserts a pending transaction and populates p.ID.
func (r *PaymentRepo) CreatePending(ctx context.Context, p *model.PaymentTransaction) error {
	const q = `INSERT INTO payment_transactions (session_id, user_id, course_id, amount_cents, currency, status, provider_status)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)`
	res, err := r.db.ExecContext(ctx, q, p.SessionID, p.UserID, p.CourseID, p.AmountCents, p.Currency, p.ProviderStatus)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Status = model.PaymentPending
	return nil
}

// GetBySessionID returns the transaction for a checkout session.
func (r *PaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (model.PaymentTransaction, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payment_transactions WHERE session_id = ?", sessionID))
	return p, notFound(err)
}

// SetProviderStatus records the provider's last reported payment status
// on a pending transaction.
func (r *PaymentRepo) SetProviderStatus(ctx context.Context, sessionID, providerStatus string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE payment_transactions SET provider_status = ? WHERE session_id = ? AND status = 'pending'",
		providerStatus, sessionID)
	return err
}

// MarkTerminal moves a pending transaction to failed or expired.  It
// reports false when the row was not pending, leaving it untouched.
func (r *PaymentRepo) MarkTerminal(ctx context.Context, sessionID, status, providerStatus string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payment_transactions SET status = ?, provider_status = ? WHERE session_id = ? AND status = 'pending'",
		status, providerStatus, sessionID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// FulfilResult describes what Fulfil changed.
type FulfilResult struct {
	Transaction model.PaymentTransaction
	// AlreadyPaid is set when the row was paid before this call; nothing
	// was written.
	AlreadyPaid bool
	// Enrolled is set when this call created the enrollment.
	Enrolled bool
}

// Fulfil promotes a transaction to paid in one transaction: lock the
// transaction row, create the enrollment if absent (incrementing the
// course counter and the user's course set only on creation), then mark
// the row paid.  Failed and expired rows are terminal and are returned
// unchanged.
func (r *PaymentRepo) Fulfil(ctx context.Context, sessionID, providerStatus string) (FulfilResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return FulfilResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		"SELECT "+paymentCols+" FROM payment_transactions WHERE session_id = ? FOR UPDATE", sessionID))
	if err != nil {
		return FulfilResult{}, notFound(err)
	}
	if p.Status == model.PaymentPaid {
		return FulfilResult{Transaction: p, AlreadyPaid: true}, nil
	}
	if p.Terminal() {
		return FulfilResult{Transaction: p}, nil
	}

	enrolled, err := grantTx(ctx, tx, p.UserID, p.CourseID, model.SourcePayment)
	if err != nil {
		return FulfilResult{}, err
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE payment_transactions SET status = 'paid', provider_status = ?, paid_at = ? WHERE id = ?",
		providerStatus, now, p.ID); err != nil {
		return FulfilResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return FulfilResult{}, err
	}
	committed = true

	p.Status = model.PaymentPaid
	p.ProviderStatus = providerStatus
	p.PaidAt = &now
	return FulfilResult{Transaction: p, Enrolled: enrolled}, nil
}

// ListPendingBefore returns up to limit pending transactions created
// before cutoff, oldest first.
func (r *PaymentRepo) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PaymentTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentCols+" FROM payment_transactions WHERE status = 'pending' AND created_at < ? ORDER BY created_at LIMIT ?",
		cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PaymentTransaction
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RevenueByCurrency sums paid transactions per currency in minor units.
func (r *PaymentRepo) RevenueByCurrency(ctx context.Context) (map[string]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT currency, COALESCE(SUM(amount_cents), 0) FROM payment_transactions WHERE status = 'paid' GROUP BY currency")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]uint64{}
	for rows.Next() {
		var (
			cur string
			sum uint64
		)
		if err := rows.Scan(&cur, &sum); err != nil {
			return nil, err
		}
		out[cur] = sum
	}
	return out, rows.Err()
}
