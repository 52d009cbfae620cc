package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nnacademy/academy-api/internal/media"
	"github.com/nnacademy/academy-api/internal/model"
)

type prefixSigner struct{ err error }

func (s prefixSigner) SignedURL(loc string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return loc + "?signed=1", nil
}

func TestPlayURL(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	course := db.addCourse(model.Course{
		Title:   "Nail Art Foundations",
		Lessons: []model.Lesson{{Key: "intro", VideoURL: "s3://academy-videos/nail/intro.mp4"}},
	})
	ext := "https://partner.example.com/course/42"
	external := db.addCourse(model.Course{Title: "Partner course", Type: model.CourseExternal, ExternalURL: &ext})
	svc := NewCatalog(courseStore{db}, enrollmentStore{db}, prefixSigner{})

	if _, err := svc.PlayURL(ctx, 7, course.ID, "intro"); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("not enrolled: %v", err)
	}
	_, _ = (enrollmentStore{db}).Grant(ctx, 7, course.ID, model.SourceAdmin)

	pb, err := svc.PlayURL(ctx, 7, course.ID, "intro")
	if err != nil {
		t.Fatal(err)
	}
	if pb.URL != "s3://academy-videos/nail/intro.mp4?signed=1" || pb.External {
		t.Fatalf("playback: %+v", pb)
	}
	if _, err := svc.PlayURL(ctx, 7, course.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing lesson: %v", err)
	}
	if _, err := svc.PlayURL(ctx, 7, 999, "intro"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing course: %v", err)
	}

	pb, err = svc.PlayURL(ctx, 7, external.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if pb.URL != ext || !pb.External {
		t.Fatalf("external: %+v", pb)
	}
}

func TestPlayURLSignerFailure(t *testing.T) {
	ctx := context.Background()
	db := newMemDB()
	course := db.addCourse(model.Course{Lessons: []model.Lesson{{Key: "a", VideoURL: "s3://b/k"}}})
	_, _ = (enrollmentStore{db}).Grant(ctx, 1, course.ID, model.SourceAdmin)
	svc := NewCatalog(courseStore{db}, enrollmentStore{db}, prefixSigner{err: errors.New("no creds")})
	if _, err := svc.PlayURL(ctx, 1, course.ID, "a"); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("got %v", err)
	}
}

var _ media.Signer = prefixSigner{}
