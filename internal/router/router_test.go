package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/handler"
	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/utils"
)

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newTestServer(signer utils.TokenSigner) *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewRequestValidator()
	RegisterRoutes(e, handler.Health(nil), handler.NewPolicyHandler(handler.PolicyInfo{Academy: "Academy"}))
	RegisterAuth(e, handler.NewAuthHandler(nil, nil, signer), signer, noop)
	RegisterStudent(e, StudentHandlers{
		Catalog:      handler.NewCatalogHandler(nil, nil, nil, nil),
		Checkout:     handler.NewCheckoutHandler(nil),
		LiveClasses:  handler.NewLiveClassHandler(nil, nil),
		Certificates: handler.NewCertificateHandler(nil),
	}, signer, noop)
	RegisterAdmin(e, &handler.AdminHandler{Signer: signer}, signer, noop)
	return e
}

type emptyClasses struct{}

func (emptyClasses) ListUpcoming(context.Context, time.Time) ([]model.LiveClass, error) {
	return nil, nil
}
func (emptyClasses) ListByUser(context.Context, uint64) ([]model.LiveClass, error) { return nil, nil }
func (emptyClasses) Create(context.Context, *model.LiveClass) error { return nil }

// markCached answers from "cache" so tests can see which routes use it.
func markCached(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return c.NoContent(http.StatusNotModified) }
}

func TestCachedRoutes(t *testing.T) {
	signer := utils.TokenSigner{Secret: "router-secret", Issuer: "academy-test", TTL: time.Minute}
	e := echo.New()
	RegisterStudent(e, StudentHandlers{
		Catalog:      handler.NewCatalogHandler(nil, nil, nil, nil),
		Checkout:     handler.NewCheckoutHandler(nil),
		LiveClasses:  handler.NewLiveClassHandler(emptyClasses{}, nil),
		Certificates: handler.NewCertificateHandler(nil),
	}, signer, markCached)

	for path, want := range map[string]int{
		"/api/courses":      http.StatusNotModified,
		"/api/courses/1":    http.StatusNotModified,
		"/api/live-classes": http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("GET %s: got %d, want %d", path, rec.Code, want)
		}
	}
}

func TestRouteProtection(t *testing.T) {
	signer := utils.TokenSigner{Secret: "router-secret", Issuer: "academy-test", TTL: time.Minute}
	e := newTestServer(signer)
	student, _ := signer.Issue(5, model.RoleStudent, "+919876543210")
	admin, _ := signer.Issue(1, model.RoleAdmin, "")

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/refund-policy", "", http.StatusOK},
		{http.MethodGet, "/privacy-policy", "", http.StatusOK},
		{http.MethodGet, "/api/courses/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/api/my-courses", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/payment/create-checkout", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/courses/1/progress", admin.Token, http.StatusForbidden},
		{http.MethodPost, "/api/live-classes/book", student.Token, http.StatusBadRequest},
		{http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/auth/me", admin.Token, http.StatusForbidden},
		{http.MethodPut, "/api/auth/profile", admin.Token, http.StatusForbidden},
		{http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/stats", student.Token, http.StatusForbidden},
		{http.MethodPost, "/api/admin/courses", admin.Token, http.StatusBadRequest},
		{http.MethodPost, "/api/admin/login", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s %s: got %d, want %d (%s)", tc.method, tc.path, rec.Code, tc.want, rec.Body)
		}
	}
}
