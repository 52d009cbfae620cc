package sms

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
)

func TestLogSenderRedactsCode(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevLvl := log.Output(), log.Level()
	log.SetOutput(&buf)
	log.SetLevel(log.DEBUG)
	defer func() {
		log.SetOutput(prevOut)
		log.SetLevel(prevLvl)
	}()

	id, err := LogSender{}.Send(context.Background(), "+919876543210",
		"Your N&N Makeup Academy verification code is 004211. It expires in 10 minutes.")
	if err != nil || id != "log" {
		t.Fatalf("got %q, %v", id, err)
	}
	out := buf.String()
	if strings.Contains(out, "004211") || strings.Contains(out, "9876543210") {
		t.Fatalf("credential in log: %s", out)
	}
	if !strings.Contains(out, "******") || !strings.Contains(out, "3210") {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestLogSenderSilentAtInfo(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevLvl := log.Output(), log.Level()
	log.SetOutput(&buf)
	log.SetLevel(log.INFO)
	defer func() {
		log.SetOutput(prevOut)
		log.SetLevel(prevLvl)
	}()

	if _, err := (LogSender{}).Send(context.Background(), "+919876543210", "code 123456"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("logged at info: %s", buf.String())
	}
}

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"code 123456":           "code ******",
		"expires in 10 minutes": "expires in 10 minutes",
		"":                      "",
	}
	for in, want := range cases {
		if got := redact(in); got != want {
			t.Errorf("redact(%q) = %q, want %q", in, got, want)
		}
	}
}
