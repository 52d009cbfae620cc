package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/service"
	"github.com/nnacademy/academy-api/internal/utils"
)

// AuthHandler serves the phone login flow and the caller's profile.
type AuthHandler struct {
	Auth     Authenticator
	Profiles Profiles
	Signer   utils.TokenSigner
}

func NewAuthHandler(auth Authenticator, profiles Profiles, signer utils.TokenSigner) *AuthHandler {
	return &AuthHandler{Auth: auth, Profiles: profiles, Signer: signer}
}

type sendOTPReq struct {
	Phone string `json:"phone" validate:"required,min=6,max=32"`
}

type verifyOTPReq struct {
	Phone string `json:"phone" validate:"required,min=6,max=32"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type profileReq struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
}

type sessionResp struct {
	Success          bool       `json:"success"`
	Message          string     `json:"message,omitempty"`
	User             model.User `json:"user"`
	Token            string     `json:"token"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RefreshToken     string     `json:"refresh_token"`
	RefreshExpiresAt time.Time  `json:"refresh_expires_at"`
}

func newSessionResp(s service.Session, msg string) sessionResp {
	return sessionResp{
		Success:          true,
		Message:          msg,
		User:             s.User,
		Token:            s.Access.Token,
		ExpiresAt:        s.Access.Exp,
		RefreshToken:     s.Refresh.Raw,
		RefreshExpiresAt: s.Refresh.Exp,
	}
}

// SendOTP handles POST /api/auth/send-otp.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.SendCode(ctx, req.Phone)
	if err != nil {
		return fail(c, err)
	}
	body := echo.Map{"success": true, "phone": res.Phone, "message": "OTP sent successfully to your phone"}
	if res.Warning != "" {
		body["message"] = "OTP generated (SMS service unavailable)"
		body["warning"] = res.Warning
	}
	if res.Code != "" {
		body["otp"] = res.Code
	}
	return c.JSON(http.StatusOK, body)
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Auth.VerifyCode(ctx, req.Phone, req.OTP)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResp(sess, "Login successful"))
}

// Refresh handles POST /api/auth/refresh and rotates the refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResp(sess, ""))
}

// Logout handles POST /api/auth/logout.  A refresh_token in the body
// revokes that session; otherwise a valid student bearer token revokes all
// of the user's sessions.  Admin tokens never resolve to a student id.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req)

	var uid uint64
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		if claims, err := h.Signer.Parse(strings.TrimPrefix(auth, "Bearer ")); err == nil && claims.Role == model.RoleStudent {
			uid, _ = claims.UserID()
		}
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, uid, strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Profiles.GetByID(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateProfile handles PUT /api/auth/profile.  Omitted fields keep their
// value.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return fail(c, err)
	}
	var req profileReq
	if errs := bindAndValidate(c, &req); errs != nil {
		return invalid(c, errs)
	}
	if req.Name == nil && req.Email == nil {
		return badRequest(c, "nothing to update")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Profiles.UpdateProfile(ctx, uid, req.Name, req.Email)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}
