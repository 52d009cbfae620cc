package utils

import (
	"strings"
	"testing"
	"time"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	s := TokenSigner{Secret: "test-secret", Issuer: "academy", TTL: time.Minute}
	tok, err := s.Issue(42, "STUDENT", "+919876543210")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := s.Parse(tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, _ := claims.UserID()
	if id != 42 || claims.Role != "STUDENT" || claims.Phone != "+919876543210" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestTokenSignerRejects(t *testing.T) {
	s := TokenSigner{Secret: "test-secret", Issuer: "academy", TTL: time.Minute}
	tok, err := s.Issue(1, "STUDENT", "")
	if err != nil {
		t.Fatal(err)
	}

	other := TokenSigner{Secret: "other-secret", Issuer: "academy", TTL: time.Minute}
	if _, err := other.Parse(tok.Token); err != ErrInvalidToken {
		t.Errorf("wrong secret: got %v", err)
	}

	wrongIss := TokenSigner{Secret: "test-secret", Issuer: "someone-else", TTL: time.Minute}
	if _, err := wrongIss.Parse(tok.Token); err != ErrInvalidToken {
		t.Errorf("wrong issuer: got %v", err)
	}

	expired := TokenSigner{Secret: "test-secret", Issuer: "academy", TTL: -time.Minute}
	old, _ := expired.Issue(1, "STUDENT", "")
	if _, err := s.Parse(old.Token); err != ErrInvalidToken {
		t.Errorf("expired: got %v", err)
	}

	if _, err := s.Parse("42"); err != ErrInvalidToken {
		t.Errorf("raw user id accepted as token: %v", err)
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d", len(rt.Raw))
	}
	h := HashRefreshRaw(rt.Raw)
	if len(h) != 64 || strings.Contains(h, rt.Raw) {
		t.Fatalf("unexpected hash %q", h)
	}
	if h != HashRefreshRaw(rt.Raw) {
		t.Fatal("hash is not deterministic")
	}
}
