package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/repository"
	"github.com/nnacademy/academy-api/internal/utils"
)

// AdminHandler serves the console: login, stats, catalog editing and
// manual enrollment.
type AdminHandler struct {
	Admins      Admins
	Signer      utils.TokenSigner
	Courses     CourseWriter
	Classes     LiveClasses
	Grants      Granter
	CourseCount Counter
	UserCount   Counter
	EnrollCount Counter
	Revenue     Revenue
	// CatalogChanged runs after every successful catalog write, typically
	// to purge the response cache.  May be nil.
	CatalogChanged func(ctx context.Context)
	// DefaultCurrency applies to courses created without one.
	DefaultCurrency string
}

type adminLoginReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandler) Login(c echo.Context) error {
	var req adminLoginReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	a, err := h.Admins.GetByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fail(c, err)
	}
	if err != nil || !utils.VerifyPassword(a.PasswordHash, req.Password) {
		log.Warnf("admin: failed login for %q from %s", req.Username, c.RealIP())
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := h.Signer.Issue(a.ID, model.RoleAdmin, "")
	if err != nil {
		return fail(c, fmt.Errorf("issue admin token: %w", err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"token":      tok.Token,
		"expires_at": tok.Exp,
		"username":   a.Username,
	})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	courses, err := h.CourseCount.Count(ctx)
	if err != nil {
		return fail(c, err)
	}
	users, err := h.UserCount.Count(ctx)
	if err != nil {
		return fail(c, err)
	}
	enrollments, err := h.EnrollCount.Count(ctx)
	if err != nil {
		return fail(c, err)
	}
	revenue, err := h.Revenue.RevenueByCurrency(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_courses":     courses,
		"total_users":       users,
		"total_enrollments": enrollments,
		"revenue_cents":     revenue,
	})
}

type lessonReq struct {
	ID          string `json:"id" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url" validate:"required,max=1024"`
	Duration    uint32 `json:"duration"`
}

type courseReq struct {
	Title       string      `json:"title" validate:"required,max=255"`
	Description string      `json:"description"`
	PriceCents  uint32      `json:"price_cents"`
	Currency    string      `json:"currency" validate:"omitempty,len=3"`
	Thumbnail   string      `json:"thumbnail" validate:"max=1024"`
	Category    string      `json:"category" validate:"required,max=64"`
	Instructor  string      `json:"instructor" validate:"max=255"`
	Duration    string      `json:"duration" validate:"max=64"`
	CourseType  string      `json:"course_type" validate:"omitempty,oneof=internal external"`
	ExternalURL string      `json:"external_url" validate:"omitempty,http_url,max=1024"`
	Lessons     []lessonReq `json:"lessons" validate:"dive"`
}

// toCourse checks the cross-field rules the tags cannot express.
func (r courseReq) toCourse(defaultCurrency string) (model.Course, string) {
	c := model.Course{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		PriceCents:  r.PriceCents,
		Currency:    strings.ToLower(r.Currency),
		Thumbnail:   r.Thumbnail,
		Category:    strings.TrimSpace(r.Category),
		Instructor:  r.Instructor,
		Duration:    r.Duration,
		Type:        r.CourseType,
	}
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if c.Type == "" {
		c.Type = model.CourseInternal
	}
	if c.IsExternal() {
		if r.ExternalURL == "" {
			return c, "external_url is required for external courses"
		}
		u := r.ExternalURL
		c.ExternalURL = &u
		return c, ""
	}
	seen := map[string]bool{}
	for i, l := range r.Lessons {
		if seen[l.ID] {
			return c, fmt.Sprintf("duplicate lesson id %q", l.ID)
		}
		seen[l.ID] = true
		c.Lessons = append(c.Lessons, model.Lesson{
			Key:         l.ID,
			Title:       l.Title,
			Description: l.Description,
			VideoURL:    l.VideoURL,
			DurationMin: l.Duration,
			Position:    uint32(i + 1),
		})
	}
	return c, ""
}

func (h *AdminHandler) catalogChanged(ctx context.Context) {
	if h.CatalogChanged != nil {
		h.CatalogChanged(ctx)
	}
}

// CreateCourse handles POST /api/admin/courses.
func (h *AdminHandler) CreateCourse(c echo.Context) error {
	var req courseReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	course, msg := req.toCourse(h.DefaultCurrency)
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Courses.Create(ctx, &course); err != nil {
		return fail(c, err)
	}
	h.catalogChanged(ctx)
	log.Infof("admin: course %d %q created", course.ID, course.Title)
	return c.JSON(http.StatusCreated, course)
}

// UpdateCourse handles PUT /api/admin/courses/:id.  The lesson list is
// replaced as a whole.
func (h *AdminHandler) UpdateCourse(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	var req courseReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	course, msg := req.toCourse(h.DefaultCurrency)
	if msg != "" {
		return badRequest(c, msg)
	}
	course.ID = id
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Courses.Update(ctx, &course); err != nil {
		return fail(c, err)
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusOK, course)
}

// DeleteCourse handles DELETE /api/admin/courses/:id.  Courses with
// payment history cannot be deleted (409).
func (h *AdminHandler) DeleteCourse(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Courses.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	h.catalogChanged(ctx)
	return c.NoContent(http.StatusNoContent)
}

type liveClassReq struct {
	Title           string    `json:"title" validate:"required,max=255"`
	Description     string    `json:"description"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	Instructor      string    `json:"instructor" validate:"max=255"`
	MaxParticipants uint32    `json:"max_participants" validate:"required,gt=0"`
	Thumbnail       string    `json:"thumbnail" validate:"max=1024"`
	Duration        uint32    `json:"duration"`
}

// CreateLiveClass handles POST /api/admin/live-classes.
func (h *AdminHandler) CreateLiveClass(c echo.Context) error {
	var req liveClassReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	lc := model.LiveClass{
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		StartsAt:        req.ScheduledAt.UTC(),
		Instructor:      req.Instructor,
		MaxParticipants: req.MaxParticipants,
		Thumbnail:       req.Thumbnail,
		DurationMin:     req.Duration,
		EnrolledUsers:   []uint64{},
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Classes.Create(ctx, &lc); err != nil {
		return fail(c, err)
	}
	h.catalogChanged(ctx)
	return c.JSON(http.StatusCreated, lc)
}

type grantReq struct {
	UserID   uint64 `json:"user_id" validate:"required,gt=0"`
	CourseID uint64 `json:"course_id" validate:"required,gt=0"`
}

// GrantEnrollment handles POST /api/admin/enrollments.  Granting an
// existing enrollment is a no-op reported as created=false.
func (h *AdminHandler) GrantEnrollment(c echo.Context) error {
	var req grantReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	created, err := h.Grants.Grant(ctx, req.UserID, req.CourseID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "created": created})
}
