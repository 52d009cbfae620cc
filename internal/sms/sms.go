// Package sms delivers text messages.  Delivery is best effort: callers
// log failures and carry on.
package sms

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender sends body to the E.164 number to and returns the provider's
// delivery id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// TwilioSender sends through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender builds a sender for the given account.  from must be a
// Twilio number or messaging service sid.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio create message: %w", err)
	}
	if resp.Sid == nil {
		return "", errors.New("twilio create message: empty sid")
	}
	return *resp.Sid, nil
}

// LogSender writes messages to the debug log instead of sending them.  It
// is only wired for local development.  Digit runs (the login code) are
// masked, so the log never holds a usable credential.
type LogSender struct{}

var digitRun = regexp.MustCompile(`\d{4,}`)

func (LogSender) Send(_ context.Context, to, body string) (string, error) {
	log.Debugf("sms (not sent) to=%s body=%q", maskPhone(to), redact(body))
	return "log", nil
}

func redact(body string) string {
	return digitRun.ReplaceAllStringFunc(body, func(m string) string {
		return strings.Repeat("*", len(m))
	})
}

func maskPhone(to string) string {
	if len(to) <= 4 {
		return to
	}
	return strings.Repeat("*", len(to)-4) + to[len(to)-4:]
}
