package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/repository"
)

// CatalogHandler serves the course catalog and the learner's own courses.
type CatalogHandler struct {
	Courses  CourseReader
	Mine     MyCourses
	Progress ProgressMarker
	Player   Player
}

func NewCatalogHandler(courses CourseReader, mine MyCourses, progress ProgressMarker, player Player) *CatalogHandler {
	return &CatalogHandler{Courses: courses, Mine: mine, Progress: progress, Player: player}
}

// ListCourses handles GET /api/courses?category=.
func (h *CatalogHandler) ListCourses(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	courses, err := h.Courses.List(ctx, strings.TrimSpace(c.QueryParam("category")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, courses)
}

// GetCourse handles GET /api/courses/:id.
func (h *CatalogHandler) GetCourse(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	course, err := h.Courses.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, course)
}

// MyCourses handles GET /api/my-courses.
func (h *CatalogHandler) MyCourses(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Mine.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	if list == nil {
		list = []repository.EnrolledCourse{}
	}
	return c.JSON(http.StatusOK, list)
}

type progressReq struct {
	LessonID string `json:"lesson_id" validate:"required,max=64"`
}

// MarkProgress handles POST /api/courses/:id/progress.
func (h *CatalogHandler) MarkProgress(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	courseID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	var req progressReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Progress.MarkLessonComplete(ctx, uid, courseID, req.LessonID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":           true,
		"progress":          res.Progress,
		"completed_lessons": res.CompletedLessons,
		"total_lessons":     res.TotalLessons,
		"certificate_id":    res.CertificateID,
	})
}

// PlayLesson handles GET /api/courses/:id/lessons/:lesson_id/play.
func (h *CatalogHandler) PlayLesson(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	courseID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	pb, err := h.Player.PlayURL(ctx, uid, courseID, c.Param("lesson_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pb)
}
