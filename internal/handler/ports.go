package handler

import (
	"context"
	"time"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/repository"
	"github.com/nnacademy/academy-api/internal/service"
)

// The handlers depend on these narrow views of the services and
// repositories so they can be exercised with stubs.

type Authenticator interface {
	SendCode(ctx context.Context, phone string) (service.SendResult, error)
	VerifyCode(ctx context.Context, phone, code string) (service.Session, error)
	Refresh(ctx context.Context, raw string) (service.Session, error)
	Logout(ctx context.Context, userID uint64, raw string) error
}

type Profiles interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, name, email *string) (model.User, error)
}

type CourseReader interface {
	List(ctx context.Context, category string) ([]model.Course, error)
	GetByID(ctx context.Context, id uint64) (model.Course, error)
}

type CourseWriter interface {
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id uint64) error
}

type MyCourses interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.EnrolledCourse, error)
}

type ProgressMarker interface {
	MarkLessonComplete(ctx context.Context, userID, courseID uint64, lessonKey string) (service.ProgressResult, error)
}

type Player interface {
	PlayURL(ctx context.Context, userID, courseID uint64, lessonKey string) (service.Playback, error)
}

type Checkouter interface {
	CreateCheckout(ctx context.Context, userID, courseID uint64, originURL string) (service.CheckoutSession, error)
	ReconcileForUser(ctx context.Context, userID uint64, sessionID string) (service.ReconcileResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type Granter interface {
	Grant(ctx context.Context, userID, courseID uint64) (bool, error)
}

type LiveClasses interface {
	ListUpcoming(ctx context.Context, now time.Time) ([]model.LiveClass, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.LiveClass, error)
	Create(ctx context.Context, lc *model.LiveClass) error
}

type Booker interface {
	Book(ctx context.Context, userID, classID uint64) error
}

type Certificates interface {
	GetByCode(ctx context.Context, code string) (model.CertificateView, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.CertificateView, error)
}

type Admins interface {
	GetByUsername(ctx context.Context, username string) (model.Admin, error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Revenue interface {
	RevenueByCurrency(ctx context.Context) (map[string]uint64, error)
}
