package utils

import (
	"errors"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "correct horse") {
		t.Fatal("matching password rejected")
	}
	if VerifyPassword(hash, "correct horsE") {
		t.Fatal("wrong password accepted")
	}
	if VerifyPassword("", "") {
		t.Fatal("empty hash accepted")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short", 4); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("got %v", err)
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("long enough", 1)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "long enough") {
		t.Fatal("password rejected after cost fallback")
	}
}
