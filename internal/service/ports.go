package service

import (
	"context"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/queue"
	"github.com/nnacademy/academy-api/internal/repository"
)

// Storage contracts.  The MySQL repositories satisfy them; tests use
// in-memory fakes.  Missing rows are reported as repository.ErrNotFound.

type UserStore interface {
	FindOrCreateByPhone(ctx context.Context, phone string) (model.User, bool, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ConsumeRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type CourseStore interface {
	GetByID(ctx context.Context, id uint64) (model.Course, error)
}

type EnrollmentStore interface {
	Get(ctx context.Context, userID, courseID uint64) (model.Enrollment, error)
	AddCompletedLesson(ctx context.Context, enrollmentID uint64, lessonKey string) error
	CompletedLessons(ctx context.Context, enrollmentID uint64) ([]string, error)
	SetProgress(ctx context.Context, enrollmentID uint64, progress float64) error
	Grant(ctx context.Context, userID, courseID uint64, source string) (bool, error)
}

type PaymentStore interface {
	CreatePending(ctx context.Context, p *model.PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (model.PaymentTransaction, error)
	SetProviderStatus(ctx context.Context, sessionID, providerStatus string) error
	MarkTerminal(ctx context.Context, sessionID, status, providerStatus string) (bool, error)
	Fulfil(ctx context.Context, sessionID, providerStatus string) (repository.FulfilResult, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PaymentTransaction, error)
}

type LiveClassStore interface {
	Book(ctx context.Context, classID, userID uint64, admit func(*model.LiveClass) error) error
}

type CertificateStore interface {
	CreateIfAbsent(ctx context.Context, userID, courseID uint64, code string, completedAt time.Time) (model.Certificate, bool, error)
}

// EventPublisher receives enrollment notifications.  Failures are logged
// by the caller and never fail the request.
type EventPublisher interface {
	PublishEnrollmentConfirmed(ctx context.Context, ev queue.EnrollmentConfirmedEvent) error
}
