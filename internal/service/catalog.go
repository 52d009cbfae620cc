package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nnacademy/academy-api/internal/media"
	"github.com/nnacademy/academy-api/internal/repository"
)

// Catalog resolves what an enrolled student may play.
type Catalog struct {
	courses     CourseStore
	enrollments EnrollmentStore
	signer      media.Signer
}

func NewCatalog(courses CourseStore, enrollments EnrollmentStore, signer media.Signer) *Catalog {
	return &Catalog{courses: courses, enrollments: enrollments, signer: signer}
}

// Playback is the URL a client opens for a lesson.
type Playback struct {
	URL      string `json:"url"`
	External bool   `json:"external"`
}

// PlayURL returns the playable URL for one lesson.  External courses
// always answer with their redirect URL.  Internal lessons require an
// enrollment; s3:// locations are presigned.
func (c *Catalog) PlayURL(ctx context.Context, userID, courseID uint64, lessonKey string) (Playback, error) {
	course, err := c.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Playback{}, ErrNotFound
		}
		return Playback{}, fmt.Errorf("load course: %w", err)
	}
	if course.IsExternal() {
		if course.ExternalURL == nil || *course.ExternalURL == "" {
			return Playback{}, ErrNotFound
		}
		return Playback{URL: *course.ExternalURL, External: true}, nil
	}
	if _, err := c.enrollments.Get(ctx, userID, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Playback{}, ErrNotEnrolled
		}
		return Playback{}, fmt.Errorf("load enrollment: %w", err)
	}
	lesson, ok := course.Lesson(lessonKey)
	if !ok {
		return Playback{}, fmt.Errorf("lesson %q: %w", lessonKey, ErrNotFound)
	}
	u, err := c.signer.SignedURL(lesson.VideoURL)
	if err != nil {
		return Playback{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return Playback{URL: u}, nil
}
