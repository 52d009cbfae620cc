package model

import "time"

// Course types.  Internal courses stream their own lessons; external
// courses only redirect to ExternalURL.
const (
	CourseInternal = "internal"
	CourseExternal = "external"
)

// Course represents a row in the `courses` table together with its ordered
// lesson list.  Prices are stored in the currency's minor unit.
//
// Fields:
//
//	ID            – primary key identifier.
//	PriceCents    – non-negative price in minor units (paise for INR).
//	Currency      – lowercase ISO 4217 code used for checkout.
//	Category      – free-form grouping (e.g. "eyebrows", "makeup").
//	Type          – CourseInternal or CourseExternal.
//	ExternalURL   – redirect target for external courses.
//	StudentsCount – incremented once per new enrollment.
//	Lessons       – ordered by position; empty for list queries.
type Course struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PriceCents    uint32    `json:"price_cents"`
	Currency      string    `json:"currency"`
	Thumbnail     string    `json:"thumbnail"`
	Category      string    `json:"category"`
	Instructor    string    `json:"instructor"`
	Duration      string    `json:"duration"`
	Type          string    `json:"course_type"`
	ExternalURL   *string   `json:"external_url,omitempty"`
	StudentsCount uint32    `json:"students_count"`
	Lessons       []Lesson  `json:"lessons,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsExternal reports whether the course is a redirect-only listing.
func (c *Course) IsExternal() bool { return c.Type == CourseExternal }

// HasLesson reports whether key identifies one of the course's lessons.
func (c *Course) HasLesson(key string) bool {
	for _, l := range c.Lessons {
		if l.Key == key {
			return true
		}
	}
	return false
}

// Lesson returns the lesson with the given key, if any.
func (c *Course) Lesson(key string) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Key == key {
			return l, true
		}
	}
	return Lesson{}, false
}

// Lesson is one video of an internal course.  Key is the stable lesson id
// exposed to clients and stored in the completed set.
type Lesson struct {
	ID          uint64 `json:"-"`           // course_lessons.id
	CourseID    uint64 `json:"-"`           // course_lessons.course_id
	Key         string `json:"id"`          // course_lessons.lesson_key
	Title       string `json:"title"`       // course_lessons.title
	Description string `json:"description"` // course_lessons.description
	VideoURL    string `json:"video_url"`   // course_lessons.video_url (https:// or s3://bucket/key)
	DurationMin uint32 `json:"duration"`    // course_lessons.duration_min
	Position    uint32 `json:"position"`    // course_lessons.position
}
