package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	// Digits is the number of digits in generated codes.
	Digits = 6
	// Period is the code validity window in seconds (RFC 6238 standard).
	Period = 30
)

// secretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding.
var secretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

// codeRegex matches a well-formed 6-digit code.
var codeRegex = regexp.MustCompile(`^\d{6}$`)

// GenerateSecretKey generates a new Base32-encoded secret key.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret per RFC 4226 recommendation
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecret, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !secretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// GenerateTOTP generates the code for the current time window.
func GenerateTOTP(secret string) (string, error) {
	return GenerateTOTPAt(secret, time.Now())
}

// GenerateTOTPAt generates the code for the window containing t.
func GenerateTOTPAt(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	code := hotp(key, t.Unix()/Period, Digits)
	return fmt.Sprintf("%06d", code), nil
}

// ValidateTOTP reports whether code is valid for secret at the current time,
// accepting the previous and next windows to tolerate clock drift.
func ValidateTOTP(secret, code string) (bool, error) {
	return ValidateTOTPAt(secret, code, time.Now())
}

// ValidateTOTPAt reports whether code is valid for secret at time t.
func ValidateTOTPAt(secret, code string, t time.Time) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}

	code = strings.TrimSpace(code)
	if !codeRegex.MatchString(code) {
		return false, ErrInvalidCode
	}

	counter := t.Unix() / Period
	for i := int64(-1); i <= 1; i++ {
		if fmt.Sprintf("%06d", hotp(key, counter+i, Digits)) == code {
			return true, nil
		}
	}
	return false, nil
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm.
func hotp(key []byte, counter int64, digits int) int {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	// Dynamic truncation: last 4 bits select the offset, 31-bit extraction
	// keeps the value positive.
	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]&0xff) << 16) |
		(int(hash[offset+2]&0xff) << 8) |
		int(hash[offset+3]&0xff)

	return code % int(math.Pow10(digits))
}
