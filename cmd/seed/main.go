// Command seed loads the starter catalog, a few upcoming live classes and
// the first admin account into an empty database.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/config"
	"github.com/nnacademy/academy-api/internal/database"
	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/repository"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	courses := repository.NewCourseRepo(db)
	n, err := courses.Count(ctx)
	if err != nil {
		log.Fatalf("count courses: %v", err)
	}
	if n > 0 {
		log.Infof("catalog already has %d courses, skipping course and class seed", n)
	} else {
		for _, c := range starterCourses(cfg.Payment.Currency) {
			if err := courses.Create(ctx, &c); err != nil {
				log.Fatalf("create course %q: %v", c.Title, err)
			}
			log.Infof("course %d: %s", c.ID, c.Title)
		}
		classes := repository.NewLiveClassRepo(db)
		for _, lc := range starterClasses(time.Now().UTC()) {
			if err := classes.Create(ctx, &lc); err != nil {
				log.Fatalf("create live class %q: %v", lc.Title, err)
			}
			log.Infof("live class %d: %s", lc.ID, lc.Title)
		}
	}

	username, password := os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Warnf("ADMIN_USERNAME/ADMIN_PASSWORD not set, no admin created")
		return
	}
	id, err := repository.NewAdminRepo(db).Create(ctx, username, password, cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrConflict):
		log.Infof("admin %q already exists", username)
	case err != nil:
		log.Fatalf("create admin: %v", err)
	default:
		log.Infof("admin %d: %s", id, username)
	}
}

func starterCourses(currency string) []model.Course {
	const thumb = "https://images.unsplash.com/photo-1512496015851-a90fb38ba796"
	eyebrowLessons := []model.Lesson{
		{Key: "lesson-1", Title: "Introduction to Eyebrow Shaping", Description: "Face shapes and the ideal brow", VideoURL: "s3://nn-academy-videos/eyebrows/01-intro.mp4", DurationMin: 12},
		{Key: "lesson-2", Title: "Tools and Hygiene", Description: "Threading, tweezers and sanitation", VideoURL: "s3://nn-academy-videos/eyebrows/02-tools.mp4", DurationMin: 15},
		{Key: "lesson-3", Title: "Mapping the Brow", Description: "Start, arch and tail points", VideoURL: "s3://nn-academy-videos/eyebrows/03-mapping.mp4", DurationMin: 18},
		{Key: "lesson-4", Title: "Threading Technique", Description: "Hands-on threading walkthrough", VideoURL: "s3://nn-academy-videos/eyebrows/04-threading.mp4", DurationMin: 25},
		{Key: "lesson-5", Title: "Tinting and Filling", Description: "Henna, tint and pencil fill", VideoURL: "s3://nn-academy-videos/eyebrows/05-tinting.mp4", DurationMin: 20},
		{Key: "lesson-6", Title: "Aftercare and Client Consultation", Description: "Finishing, aftercare and rebooking", VideoURL: "s3://nn-academy-videos/eyebrows/06-aftercare.mp4", DurationMin: 10},
	}
	for i := range eyebrowLessons {
		eyebrowLessons[i].Position = uint32(i + 1)
	}
	bridalURL := "https://www.udemy.com/course/bridal-makeup-masterclass/"
	return []model.Course{
		{
			Title:       "Basic Eyebrow Shaping & Enhancement",
			Description: "Learn professional eyebrow shaping from mapping to tinting.",
			PriceCents:  99900,
			Currency:    currency,
			Thumbnail:   thumb,
			Category:    "eyebrows",
			Instructor:  "N&N Makeup Academy",
			Duration:    "2 hours",
			Type:        model.CourseInternal,
			Lessons:     eyebrowLessons,
		},
		{
			Title:       "Everyday Makeup Essentials",
			Description: "Skin prep, base and a five minute daily look.",
			PriceCents:  149900,
			Currency:    currency,
			Thumbnail:   thumb,
			Category:    "makeup",
			Instructor:  "N&N Makeup Academy",
			Duration:    "1 hour",
			Type:        model.CourseInternal,
			Lessons: []model.Lesson{
				{Key: "lesson-1", Title: "Skin Prep", VideoURL: "s3://nn-academy-videos/everyday/01-prep.mp4", DurationMin: 14, Position: 1},
				{Key: "lesson-2", Title: "Base and Concealer", VideoURL: "s3://nn-academy-videos/everyday/02-base.mp4", DurationMin: 22, Position: 2},
				{Key: "lesson-3", Title: "Eyes and Lips", VideoURL: "s3://nn-academy-videos/everyday/03-eyes-lips.mp4", DurationMin: 24, Position: 3},
			},
		},
		{
			Title:       "Bridal Makeup Masterclass",
			Description: "Hosted on our partner platform.",
			Currency:    currency,
			Thumbnail:   thumb,
			Category:    "bridal",
			Instructor:  "N&N Makeup Academy",
			Duration:    "6 hours",
			Type:        model.CourseExternal,
			ExternalURL: &bridalURL,
		},
	}
}

func starterClasses(now time.Time) []model.LiveClass {
	day := now.Truncate(24 * time.Hour)
	return []model.LiveClass{
		{
			Title:           "Live Q&A: Brow Mapping",
			Description:     "Bring your questions on mapping and symmetry.",
			StartsAt:        day.Add(7*24*time.Hour + 13*time.Hour),
			Instructor:      "N&N Makeup Academy",
			MaxParticipants: 25,
			DurationMin:     60,
		},
		{
			Title:           "Bridal Look Demo",
			Description:     "Full bridal look on a live model.",
			StartsAt:        day.Add(14*24*time.Hour + 12*time.Hour),
			Instructor:      "N&N Makeup Academy",
			MaxParticipants: 40,
			DurationMin:     90,
		},
	}
}
