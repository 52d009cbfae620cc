package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/config"
	"github.com/nnacademy/academy-api/internal/utils"
)

var testSigner = utils.TokenSigner{Secret: "mw-secret", Issuer: "academy-test", TTL: time.Minute}

func serve(t *testing.T, h echo.HandlerFunc, mw []echo.MiddlewareFunc, authz string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/x", h, mw...)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	tok, err := testSigner.Issue(42, "STUDENT", "+919876543210")
	if err != nil {
		t.Fatal(err)
	}
	var gotID any
	var gotRole any
	h := func(c echo.Context) error {
		gotID, gotRole = c.Get(CtxUserID), c.Get(CtxRole)
		return c.NoContent(http.StatusNoContent)
	}
	mw := []echo.MiddlewareFunc{JWTAuth(testSigner)}

	if rec := serve(t, h, mw, "Bearer "+tok.Token); rec.Code != http.StatusNoContent {
		t.Fatalf("valid token: %d %s", rec.Code, rec.Body)
	}
	if gotID != uint64(42) || gotRole != "STUDENT" {
		t.Fatalf("context: id=%v role=%v", gotID, gotRole)
	}

	for name, hdr := range map[string]string{
		"missing":  "",
		"scheme":   "Token " + tok.Token,
		"garbage":  "Bearer abc.def.ghi",
		"bare id":  "Bearer 42",
		"tampered": "Bearer " + tok.Token + "x",
	} {
		if rec := serve(t, h, mw, hdr); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d", name, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	h := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	mw := []echo.MiddlewareFunc{JWTAuth(testSigner), RequireRole("ADMIN")}

	student, _ := testSigner.Issue(1, "STUDENT", "")
	admin, _ := testSigner.Issue(2, "ADMIN", "")
	if rec := serve(t, h, mw, "Bearer "+student.Token); rec.Code != http.StatusForbidden {
		t.Fatalf("student: %d", rec.Code)
	}
	if rec := serve(t, h, mw, "Bearer "+admin.Token); rec.Code != http.StatusNoContent {
		t.Fatalf("admin: %d", rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/send-otp")

	cfg := config.RateLimitConfig{Prefix: "rl:otp", KeyStrategy: "ip_route"}
	if got, want := buildRateKey(cfg, c), "rl:otp:ip:203.0.113.9:route:POST /api/auth/send-otp"; got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}

	c.Set(CtxUserID, uint64(77))
	cfg = config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
	if got := buildRateKey(cfg, c); got != "rl:user:77" {
		t.Fatalf("user key = %q", got)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	for ms, want := range map[int64]int{-5: 0, 0: 0, 1: 1, 1000: 1, 1001: 2, 59000: 59} {
		if got := retryAfterSeconds(ms); got != want {
			t.Errorf("retryAfterSeconds(%d) = %d, want %d", ms, got, want)
		}
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{echo.HeaderContentType: {echo.MIMEApplicationJSON}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"courses":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON || string(body) != `{"courses":[]}` {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:5]); ok {
		t.Fatal("short payload accepted")
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 8}
	_, _ = cw.Write([]byte("12345"))
	_, _ = cw.Write([]byte("6789"))
	if !cw.truncated || cw.buf.Len() != 0 {
		t.Fatalf("truncated=%v buf=%q", cw.truncated, cw.buf.String())
	}
	if rec.Body.String() != "123456789" {
		t.Fatalf("client body = %q", rec.Body.String())
	}
}

func TestCacheKeyIncludesParams(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache:catalog", KeyStrategy: "route_query"}
	key := func(id string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/courses/"+id, nil), httptest.NewRecorder())
		c.SetPath("/api/courses/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return cacheKeyFrom(cfg, c)
	}
	if key("1") == key("2") {
		t.Fatal("distinct courses share a cache key")
	}
	if !strings.HasPrefix(key("1"), "cache:catalog:") {
		t.Fatalf("prefix: %s", key("1"))
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	mw := []echo.MiddlewareFunc{
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
	}
	if rec := serve(t, h, mw, ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body)
	}
}
