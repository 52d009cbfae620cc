package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/repository"
)

// Progress records lesson completion and derives the course percentage.
type Progress struct {
	courses      CourseStore
	enrollments  EnrollmentStore
	certificates CertificateStore
	now          func() time.Time
}

func NewProgress(courses CourseStore, enrollments EnrollmentStore, certificates CertificateStore) *Progress {
	return &Progress{courses: courses, enrollments: enrollments, certificates: certificates, now: time.Now}
}

// ProgressResult is the enrollment state after a completion.
type ProgressResult struct {
	Progress         float64  `json:"progress"`
	CompletedLessons []string `json:"completed_lessons"`
	TotalLessons     int      `json:"total_lessons"`
	CertificateID    string   `json:"certificate_id,omitempty"`
}

// ComputeProgress returns completed/total as a percentage rounded half up
// to two decimals, or 0 when the course has no lessons.
func ComputeProgress(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	// basis points, rounded half up in integer arithmetic
	bp := (int64(completed)*20000 + int64(total)) / (2 * int64(total))
	return float64(bp) / 100
}

// MarkLessonComplete adds lessonKey to the user's completed set for
// courseID and recomputes progress.  Repeating a lesson leaves the set
// unchanged.  Reaching 100% issues a certificate once.
func (p *Progress) MarkLessonComplete(ctx context.Context, userID, courseID uint64, lessonKey string) (ProgressResult, error) {
	enr, err := p.enrollments.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProgressResult{}, ErrNotEnrolled
		}
		return ProgressResult{}, fmt.Errorf("load enrollment: %w", err)
	}
	course, err := p.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ProgressResult{}, ErrNotFound
		}
		return ProgressResult{}, fmt.Errorf("load course: %w", err)
	}
	if !course.HasLesson(lessonKey) {
		return ProgressResult{}, fmt.Errorf("lesson %q: %w", lessonKey, ErrNotFound)
	}

	if err := p.enrollments.AddCompletedLesson(ctx, enr.ID, lessonKey); err != nil {
		return ProgressResult{}, fmt.Errorf("add lesson: %w", err)
	}
	keys, err := p.enrollments.CompletedLessons(ctx, enr.ID)
	if err != nil {
		return ProgressResult{}, fmt.Errorf("load completed lessons: %w", err)
	}

	// Lessons removed from the course since completion no longer count.
	done := 0
	for _, k := range keys {
		if course.HasLesson(k) {
			done++
		}
	}
	res := ProgressResult{
		Progress:         ComputeProgress(done, len(course.Lessons)),
		CompletedLessons: keys,
		TotalLessons:     len(course.Lessons),
	}
	if err := p.enrollments.SetProgress(ctx, enr.ID, res.Progress); err != nil {
		return ProgressResult{}, fmt.Errorf("save progress: %w", err)
	}

	if res.Progress >= 100 && p.certificates != nil {
		cert, created, err := p.certificates.CreateIfAbsent(ctx, userID, courseID, newCertificateCode(), p.now())
		if err != nil {
			log.Warnf("progress: certificate for user=%d course=%d: %v", userID, courseID, err)
		} else {
			res.CertificateID = cert.Code
			if created {
				log.Infof("progress: certificate %s issued user=%d course=%d", cert.Code, userID, courseID)
			}
		}
	}
	return res, nil
}

// newCertificateCode returns a short printable code such as
// "NNA-3F9A1C2B7D4E".
func newCertificateCode() string {
	id := uuid.New()
	return fmt.Sprintf("NNA-%X", id[:6])
}
