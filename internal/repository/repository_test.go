package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/nnacademy/academy-api/internal/model"
)

var errClassFull = errors.New("class is full")

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var paymentColumns = []string{"id", "session_id", "user_id", "course_id", "amount_cents", "currency", "status",
	"provider_status", "created_at", "updated_at", "paid_at"}

func paymentRow(status string) *sqlmock.Rows {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var paidAt any
	if status == model.PaymentPaid {
		paidAt = at
	}
	return sqlmock.NewRows(paymentColumns).
		AddRow(1, "cs_1", 7, 3, 99900, "inr", status, "unpaid", at, at, paidAt)
}

func expectLockPayment(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM payment_transactions WHERE session_id = ? FOR UPDATE")).
		WithArgs("cs_1").
		WillReturnRows(rows)
}

func TestFulfilCreatesEnrollment(t *testing.T) {
	db, mock := newMock(t)
	expectLockPayment(mock, paymentRow(model.PaymentPending))
	mock.ExpectExec(q("INSERT IGNORE INTO enrollments")).
		WithArgs(7, 3, model.SourcePayment).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(q("UPDATE courses SET students_count = students_count + 1 WHERE id = ?")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT IGNORE INTO user_courses")).
		WithArgs(7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE payment_transactions SET status = 'paid'")).
		WithArgs("paid", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := NewPaymentRepo(db).Fulfil(context.Background(), "cs_1", "paid")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Enrolled || res.AlreadyPaid || res.Transaction.Status != model.PaymentPaid || res.Transaction.PaidAt == nil {
		t.Fatalf("result %+v", res)
	}
}

func TestFulfilExistingEnrollmentSkipsCounter(t *testing.T) {
	db, mock := newMock(t)
	expectLockPayment(mock, paymentRow(model.PaymentPending))
	mock.ExpectExec(q("INSERT IGNORE INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// no students_count update: the next statement must be the set insert
	mock.ExpectExec(q("INSERT IGNORE INTO user_courses")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("UPDATE payment_transactions SET status = 'paid'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := NewPaymentRepo(db).Fulfil(context.Background(), "cs_1", "paid")
	if err != nil {
		t.Fatal(err)
	}
	if res.Enrolled || res.Transaction.Status != model.PaymentPaid {
		t.Fatalf("result %+v", res)
	}
}

func TestFulfilLeavesSettledRowsAlone(t *testing.T) {
	cases := []struct {
		status      string
		alreadyPaid bool
	}{
		{model.PaymentPaid, true},
		{model.PaymentExpired, false},
		{model.PaymentFailed, false},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			db, mock := newMock(t)
			expectLockPayment(mock, paymentRow(tc.status))
			mock.ExpectRollback()

			res, err := NewPaymentRepo(db).Fulfil(context.Background(), "cs_1", "paid")
			if err != nil {
				t.Fatal(err)
			}
			if res.Enrolled || res.AlreadyPaid != tc.alreadyPaid || res.Transaction.Status != tc.status {
				t.Fatalf("result %+v", res)
			}
		})
	}
}

func TestFulfilUnknownSession(t *testing.T) {
	db, mock := newMock(t)
	expectLockPayment(mock, sqlmock.NewRows(paymentColumns))
	mock.ExpectRollback()

	if _, err := NewPaymentRepo(db).Fulfil(context.Background(), "cs_1", "paid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestFulfilRollsBackOnWriteError(t *testing.T) {
	db, mock := newMock(t)
	expectLockPayment(mock, paymentRow(model.PaymentPending))
	mock.ExpectExec(q("INSERT IGNORE INTO enrollments")).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	if _, err := NewPaymentRepo(db).Fulfil(context.Background(), "cs_1", "paid"); err == nil {
		t.Fatal("expected error")
	}
}

func expectGrantLocks(mock sqlmock.Sqlmock, courseFound, userFound bool) {
	mock.ExpectBegin()
	courses := sqlmock.NewRows([]string{"id"})
	if courseFound {
		courses.AddRow(3)
	}
	mock.ExpectQuery(q("SELECT id FROM courses WHERE id = ? FOR UPDATE")).WithArgs(3).WillReturnRows(courses)
	if !courseFound {
		return
	}
	users := sqlmock.NewRows([]string{"id"})
	if userFound {
		users.AddRow(7)
	}
	mock.ExpectQuery(q("SELECT id FROM users WHERE id = ?")).WithArgs(7).WillReturnRows(users)
}

func TestGrant(t *testing.T) {
	db, mock := newMock(t)
	expectGrantLocks(mock, true, true)
	mock.ExpectExec(q("INSERT IGNORE INTO enrollments")).
		WithArgs(7, 3, model.SourceAdmin).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(q("UPDATE courses SET students_count")).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT IGNORE INTO user_courses")).WithArgs(7, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := NewEnrollmentRepo(db).Grant(context.Background(), 7, 3, model.SourceAdmin)
	if err != nil || !created {
		t.Fatalf("grant: %v %v", created, err)
	}
}

func TestGrantRepeatHasNoSideEffects(t *testing.T) {
	db, mock := newMock(t)
	expectGrantLocks(mock, true, true)
	mock.ExpectExec(q("INSERT IGNORE INTO enrollments")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("INSERT IGNORE INTO user_courses")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	created, err := NewEnrollmentRepo(db).Grant(context.Background(), 7, 3, model.SourceAdmin)
	if err != nil || created {
		t.Fatalf("repeat grant: %v %v", created, err)
	}
}

func TestGrantUnknownUserOrCourse(t *testing.T) {
	for name, course := range map[string]bool{"course": false, "user": true} {
		t.Run(name, func(t *testing.T) {
			db, mock := newMock(t)
			expectGrantLocks(mock, course, false)
			mock.ExpectRollback()

			created, err := NewEnrollmentRepo(db).Grant(context.Background(), 7, 3, model.SourceAdmin)
			if !errors.Is(err, ErrNotFound) || created {
				t.Fatalf("got %v %v", created, err)
			}
		})
	}
}

var liveClassColumns = []string{"id", "title", "description", "starts_at", "instructor", "max_participants",
	"thumbnail", "duration_min", "created_at"}

func expectLockClass(mock sqlmock.Sqlmock, capacity int, roster ...int) {
	at := time.Date(2026, 4, 1, 13, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM live_classes WHERE id = ? FOR UPDATE")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(liveClassColumns).
			AddRow(9, "Brow Q&A", "", at, "N&N", capacity, "", 60, at))
	ids := sqlmock.NewRows([]string{"user_id"})
	for _, id := range roster {
		ids.AddRow(id)
	}
	mock.ExpectQuery(q("SELECT user_id FROM live_class_bookings WHERE live_class_id = ?")).
		WithArgs(9).
		WillReturnRows(ids)
}

func admitUnlessFull(lc *model.LiveClass) error {
	if lc.Full() {
		return errClassFull
	}
	return nil
}

func TestBookAddsToRoster(t *testing.T) {
	db, mock := newMock(t)
	expectLockClass(mock, 2, 4)
	mock.ExpectExec(q("INSERT IGNORE INTO live_class_bookings")).
		WithArgs(9, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen []uint64
	err := NewLiveClassRepo(db).Book(context.Background(), 9, 5, func(lc *model.LiveClass) error {
		seen = lc.EnrolledUsers
		return admitUnlessFull(lc)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != 4 {
		t.Fatalf("admit saw roster %v", seen)
	}
}

func TestBookFullClassWritesNothing(t *testing.T) {
	db, mock := newMock(t)
	expectLockClass(mock, 2, 4, 6)
	mock.ExpectRollback()

	err := NewLiveClassRepo(db).Book(context.Background(), 9, 5, admitUnlessFull)
	if !errors.Is(err, errClassFull) {
		t.Fatalf("got %v", err)
	}
}

func TestBookUnknownClass(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM live_classes WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(liveClassColumns))
	mock.ExpectRollback()

	err := NewLiveClassRepo(db).Book(context.Background(), 9, 5, admitUnlessFull)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestDeleteReferencedCourse(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("DELETE FROM courses WHERE id = ?")).
		WithArgs(3).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
	mock.ExpectExec(q("DELETE FROM courses WHERE id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCourseRepo(db)
	if err := repo.Delete(context.Background(), 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("referenced course: %v", err)
	}
	if err := repo.Delete(context.Background(), 4); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing course: %v", err)
	}
}

func TestMySQLErrorClassification(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	ref := &mysql.MySQLError{Number: 1451}
	if !isDuplicate(dup) || isDuplicate(ref) || isDuplicate(errors.New("Error 1062")) {
		t.Fatal("isDuplicate misclassified")
	}
	if !isReferenced(ref) || isReferenced(dup) || isReferenced(nil) {
		t.Fatal("isReferenced misclassified")
	}
}
