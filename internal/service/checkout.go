package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/payment"
	"github.com/nnacademy/academy-api/internal/queue"
	"github.com/nnacademy/academy-api/internal/repository"
)

// Sweeper thresholds.
const (
	// ReconcileAfter is how old a pending transaction must be before the
	// sweeper polls the provider for it.
	ReconcileAfter = 2 * time.Minute

	sweepBatch = 100
)

// Checkout drives the payment state machine: pending to paid, failed or
// expired.  Promotion to paid creates the enrollment exactly once no
// matter how many times or from how many paths it is observed.
type Checkout struct {
	courses     CourseStore
	enrollments EnrollmentStore
	payments    PaymentStore
	gateway     payment.Gateway
	events      EventPublisher
	now         func() time.Time
}

func NewCheckout(courses CourseStore, enrollments EnrollmentStore, payments PaymentStore, gateway payment.Gateway, events EventPublisher) *Checkout {
	return &Checkout{
		courses:     courses,
		enrollments: enrollments,
		payments:    payments,
		gateway:     gateway,
		events:      events,
		now:         time.Now,
	}
}

// CheckoutSession is the hosted page the client redirects to.
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// CreateCheckout opens a hosted checkout for courseID and records it as a
// pending transaction.
func (s *Checkout) CreateCheckout(ctx context.Context, userID, courseID uint64, originURL string) (CheckoutSession, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return CheckoutSession{}, ErrNotFound
		}
		return CheckoutSession{}, fmt.Errorf("load course: %w", err)
	}
	if course.IsExternal() {
		return CheckoutSession{}, ErrExternalCourse
	}
	if _, err := s.enrollments.Get(ctx, userID, courseID); err == nil {
		return CheckoutSession{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, repository.ErrNotFound) {
		return CheckoutSession{}, fmt.Errorf("load enrollment: %w", err)
	}

	origin := strings.TrimRight(originURL, "/")
	sess, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		AmountCents: int64(course.PriceCents),
		Currency:    course.Currency,
		ProductName: course.Title,
		SuccessURL:  origin + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   fmt.Sprintf("%s/courses/%d", origin, course.ID),
		Metadata: map[string]string{
			"user_id":      strconv.FormatUint(userID, 10),
			"course_id":    strconv.FormatUint(course.ID, 10),
			"course_title": course.Title,
		},
	})
	if err != nil {
		log.Errorf("checkout: create session for course %d: %v", course.ID, err)
		return CheckoutSession{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	txn := &model.PaymentTransaction{
		SessionID:      sess.ID,
		UserID:         userID,
		CourseID:       course.ID,
		AmountCents:    course.PriceCents,
		Currency:       course.Currency,
		ProviderStatus: payment.PaymentUnpaid,
	}
	if err := s.payments.CreatePending(ctx, txn); err != nil {
		return CheckoutSession{}, fmt.Errorf("save transaction: %w", err)
	}
	return CheckoutSession{URL: sess.URL, SessionID: sess.ID}, nil
}

// ReconcileResult is the local view of a transaction after reconciling.
type ReconcileResult struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CourseID      uint64 `json:"course_id"`
}

// ReconcileForUser is Reconcile for the client poll: the transaction must
// belong to userID, otherwise it is reported as not found.
func (s *Checkout) ReconcileForUser(ctx context.Context, userID uint64, sessionID string) (ReconcileResult, error) {
	txn, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ReconcileResult{}, ErrNotFound
		}
		return ReconcileResult{}, fmt.Errorf("load transaction: %w", err)
	}
	if txn.UserID != userID {
		return ReconcileResult{}, ErrNotFound
	}
	return s.reconcile(ctx, txn)
}

// Reconcile brings the local transaction in line with the provider.  It
// is idempotent and safe to run concurrently for the same session.
func (s *Checkout) Reconcile(ctx context.Context, sessionID string) (ReconcileResult, error) {
	txn, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ReconcileResult{}, ErrNotFound
		}
		return ReconcileResult{}, fmt.Errorf("load transaction: %w", err)
	}
	return s.reconcile(ctx, txn)
}

func (s *Checkout) reconcile(ctx context.Context, txn model.PaymentTransaction) (ReconcileResult, error) {
	out := ReconcileResult{
		SessionID:     txn.SessionID,
		Status:        txn.Status,
		PaymentStatus: txn.ProviderStatus,
		CourseID:      txn.CourseID,
	}
	if txn.Terminal() {
		return out, nil
	}

	st, err := s.gateway.GetStatus(ctx, txn.SessionID)
	if err != nil {
		log.Errorf("checkout: status for %s: %v", txn.SessionID, err)
		return ReconcileResult{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	out.PaymentStatus = st.PaymentStatus

	switch {
	case st.Paid():
		res, err := s.payments.Fulfil(ctx, txn.SessionID, st.PaymentStatus)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("fulfil %s: %w", txn.SessionID, err)
		}
		out.Status = res.Transaction.Status
		if res.Enrolled {
			log.Infof("checkout: enrolled user=%d course=%d session=%s", txn.UserID, txn.CourseID, txn.SessionID)
			s.publish(ctx, res.Transaction, model.SourcePayment)
		}
	case st.SessionStatus == payment.SessionExpired:
		if _, err := s.payments.MarkTerminal(ctx, txn.SessionID, model.PaymentExpired, st.PaymentStatus); err != nil {
			return ReconcileResult{}, fmt.Errorf("expire %s: %w", txn.SessionID, err)
		}
		return s.reload(ctx, txn.SessionID, st.PaymentStatus)
	default:
		if err := s.payments.SetProviderStatus(ctx, txn.SessionID, st.PaymentStatus); err != nil {
			return ReconcileResult{}, fmt.Errorf("update %s: %w", txn.SessionID, err)
		}
	}
	return out, nil
}

// reload re-reads a transaction after a conditional write so the caller
// sees what actually won (e.g. a concurrent fulfilment).
func (s *Checkout) reload(ctx context.Context, sessionID, providerStatus string) (ReconcileResult, error) {
	txn, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("load transaction: %w", err)
	}
	return ReconcileResult{
		SessionID:     txn.SessionID,
		Status:        txn.Status,
		PaymentStatus: providerStatus,
		CourseID:      txn.CourseID,
	}, nil
}

// HandleWebhook verifies a provider notification and applies it.  Events
// that do not concern a known checkout session are acknowledged without
// side effects.
func (s *Checkout) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		log.Warnf("webhook: rejected: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if ev.SessionID == "" {
		log.Debugf("webhook: ignoring %s (%s)", ev.Type, ev.ID)
		return nil
	}

	switch ev.Type {
	case payment.EventSessionCompleted, payment.EventAsyncPaymentSucceeded:
		_, err = s.Reconcile(ctx, ev.SessionID)
	case payment.EventSessionExpired:
		_, err = s.payments.MarkTerminal(ctx, ev.SessionID, model.PaymentExpired, ev.PaymentStatus)
	case payment.EventAsyncPaymentFailed:
		_, err = s.payments.MarkTerminal(ctx, ev.SessionID, model.PaymentFailed, ev.PaymentStatus)
	default:
		log.Debugf("webhook: ignoring %s (%s)", ev.Type, ev.ID)
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		log.Warnf("webhook: %s for unknown session %s", ev.Type, ev.SessionID)
		return nil
	}
	return err
}

// Grant enrolls a user without payment (admin console).  It reports
// whether a new enrollment was created.
func (s *Checkout) Grant(ctx context.Context, userID, courseID uint64) (bool, error) {
	created, err := s.enrollments.Grant(ctx, userID, courseID, model.SourceAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("grant enrollment: %w", err)
	}
	if created {
		s.publish(ctx, model.PaymentTransaction{UserID: userID, CourseID: courseID}, model.SourceAdmin)
	}
	return created, nil
}

// SweepResult counts what one sweep changed.
type SweepResult struct {
	Checked int
	Paid    int
	Expired int
	Failed  int
}

// Sweep reconciles pending transactions older than ReconcileAfter.  A
// transaction only leaves pending on the provider's word: paid sessions
// are fulfilled and sessions the provider reports expired are expired.
// When the provider cannot be reached the row stays pending for the next
// sweep.  Per-transaction errors are logged and do not stop the sweep.
func (s *Checkout) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now().UTC()

	pending, err := s.payments.ListPendingBefore(ctx, now.Add(-ReconcileAfter), sweepBatch)
	if err != nil {
		return res, fmt.Errorf("list pending: %w", err)
	}
	for _, txn := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Checked++
		r, err := s.reconcile(ctx, txn)
		if err != nil {
			res.Failed++
			log.Warnf("sweep: reconcile %s: %v", txn.SessionID, err)
			continue
		}
		switch r.Status {
		case model.PaymentPaid:
			res.Paid++
		case model.PaymentExpired:
			res.Expired++
		}
	}
	return res, nil
}

func (s *Checkout) publish(ctx context.Context, txn model.PaymentTransaction, source string) {
	if s.events == nil {
		return
	}
	ev := queue.EnrollmentConfirmedEvent{
		UserID:      txn.UserID,
		CourseID:    txn.CourseID,
		SessionID:   txn.SessionID,
		AmountCents: txn.AmountCents,
		Currency:    txn.Currency,
		Source:      source,
		ConfirmedAt: s.now().UTC().Format(time.RFC3339),
	}
	if c, err := s.courses.GetByID(ctx, txn.CourseID); err == nil {
		ev.CourseTitle = c.Title
	}
	if err := s.events.PublishEnrollmentConfirmed(ctx, ev); err != nil {
		log.Warnf("checkout: publish enrollment.confirmed: %v", err)
	}
}
