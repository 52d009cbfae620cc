package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/model"
	"github.com/nnacademy/academy-api/internal/otp"
	"github.com/nnacademy/academy-api/internal/repository"
	"github.com/nnacademy/academy-api/internal/sms"
	"github.com/nnacademy/academy-api/internal/utils"
)

// AuthConfig tunes OTP issuance and session lifetimes.
type AuthConfig struct {
	CodeTTL            time.Duration
	DefaultCountryCode string
	// ExposeCode puts the plaintext code in SendResult.  Development only.
	ExposeCode     bool
	SenderName     string
	RefreshTTLDays int
}

// Auth issues one-time codes and exchanges them for signed sessions.
type Auth struct {
	cfg    AuthConfig
	codes  otp.Store
	sender sms.Sender
	users  UserStore
	tokens TokenStore
	signer utils.TokenSigner
}

func NewAuth(cfg AuthConfig, codes otp.Store, sender sms.Sender, users UserStore, tokens TokenStore, signer utils.TokenSigner) *Auth {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "+91"
	}
	if cfg.RefreshTTLDays <= 0 {
		cfg.RefreshTTLDays = 30
	}
	return &Auth{cfg: cfg, codes: codes, sender: sender, users: users, tokens: tokens, signer: signer}
}

// SendResult is returned by SendCode.  Code is empty unless ExposeCode is
// enabled; Warning is set when SMS delivery failed.
type SendResult struct {
	Phone   string
	Code    string
	Warning string
}

// SendCode generates a code for phone, replaces any live challenge and
// hands the code to the SMS sender.  Delivery failure is downgraded to a
// warning: the challenge stays valid.
func (a *Auth) SendCode(ctx context.Context, rawPhone string) (SendResult, error) {
	phone, err := otp.NormalizePhone(rawPhone, a.cfg.DefaultCountryCode)
	if err != nil {
		return SendResult{}, err
	}
	code, err := otp.NewCode()
	if err != nil {
		return SendResult{}, fmt.Errorf("generate otp: %w", err)
	}
	if err := a.codes.Put(ctx, phone, code, a.cfg.CodeTTL); err != nil {
		return SendResult{}, fmt.Errorf("store otp: %w", err)
	}

	res := SendResult{Phone: phone}
	body := fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.",
		a.cfg.SenderName, code, int(a.cfg.CodeTTL.Minutes()))
	if id, err := a.sender.Send(ctx, phone, body); err != nil {
		log.Warnf("otp: sms delivery to %s failed: %v", phone, err)
		res.Warning = "SMS delivery failed; please retry"
	} else {
		log.Debugf("otp: sms to %s queued id=%s", phone, id)
	}
	if a.cfg.ExposeCode {
		res.Code = code
	}
	return res, nil
}

// Session is a freshly issued access/refresh pair.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// VerifyCode consumes the live challenge for phone.  On success the user
// is looked up or created and a new session is issued.
func (a *Auth) VerifyCode(ctx context.Context, rawPhone, code string) (Session, error) {
	phone, err := otp.NormalizePhone(rawPhone, a.cfg.DefaultCountryCode)
	if err != nil {
		return Session{}, ErrInvalidOTP
	}
	ok, err := a.codes.Consume(ctx, phone, code)
	if err != nil {
		return Session{}, fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		return Session{}, ErrInvalidOTP
	}
	u, created, err := a.users.FindOrCreateByPhone(ctx, phone)
	if err != nil {
		return Session{}, fmt.Errorf("find or create user: %w", err)
	}
	if created {
		log.Infof("auth: new user id=%d", u.ID)
	}
	return a.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is returned.
func (a *Auth) Refresh(ctx context.Context, raw string) (Session, error) {
	userID, err := a.tokens.ConsumeRefresh(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrNotAuthenticated
		}
		return Session{}, fmt.Errorf("consume refresh: %w", err)
	}
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrNotAuthenticated
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return a.issue(ctx, u)
}

// Logout revokes one refresh token when raw is set, otherwise every token
// of userID.  userID zero with an empty raw token is ErrNotAuthenticated.
func (a *Auth) Logout(ctx context.Context, userID uint64, raw string) error {
	if raw != "" {
		ok, err := a.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
		if err != nil {
			return fmt.Errorf("revoke refresh: %w", err)
		}
		if !ok {
			return ErrNotAuthenticated
		}
		return nil
	}
	if userID == 0 {
		return ErrNotAuthenticated
	}
	return a.tokens.RevokeAllForUser(ctx, userID)
}

func (a *Auth) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := a.signer.Issue(u.ID, model.RoleStudent, u.Phone)
	if err != nil {
		return Session{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(a.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := a.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("save refresh: %w", err)
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}
