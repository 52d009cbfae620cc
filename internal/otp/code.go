package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// CodeLength is the number of digits in a login code.
const CodeLength = 6

// NewCode returns a uniformly random numeric code, zero padded.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// ErrInvalidPhone is returned for input that cannot be a phone number.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone strips separators and prefixes defaultCC when the number
// has no leading '+'.  The result is "+" followed by 8 to 15 digits.
func NormalizePhone(raw, defaultCC string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}
	phone := b.String()
	if !strings.HasPrefix(phone, "+") {
		cc := strings.TrimSpace(defaultCC)
		if !strings.HasPrefix(cc, "+") {
			cc = "+" + cc
		}
		phone = cc + strings.TrimLeft(phone, "0")
	}
	digits := len(phone) - 1
	if digits < 8 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return phone, nil
}
