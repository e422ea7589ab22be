package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPeriod    = 30 * time.Second // RFC 6238 time step
	DefaultDigits    = 6
	DefaultDrift     = 1
	DefaultAlgorithm = "SHA1"

	// KeySize is the length of generated secrets (160 bits, RFC 4226 recommendation).
	KeySize = 20

	maxDigits = 10
)

var pow10 = [...]int64{1, 10, 100, 1_000, 10_000, 100_000, 1_000_000, 10_000_000, 100_000_000, 1_000_000_000, 10_000_000_000}

// Params holds the per-device TOTP settings.
// Zero Period and Digits fall back to the RFC defaults; Drift is used as given.
type Params struct {
	Period time.Duration // length of one time step
	Epoch  int64         // T0 in unix seconds
	Digits int           // code length
	Drift  int           // tolerated steps on each side of the current one
}

// DefaultParams returns 30s steps, epoch 0, 6 digits and a drift of one step.
func DefaultParams() Params {
	return Params{
		Period: DefaultPeriod,
		Digits: DefaultDigits,
		Drift:  DefaultDrift,
	}
}

func (p Params) normalize() Params {
	if p.Period < time.Second {
		p.Period = DefaultPeriod
	}
	if p.Digits <= 0 || p.Digits > maxDigits {
		p.Digits = DefaultDigits
	}
	if p.Drift < 0 {
		p.Drift = 0
	}
	return p
}

// PeriodSeconds returns the step length in whole seconds.
func (p Params) PeriodSeconds() int64 {
	return int64(p.normalize().Period / time.Second)
}

// NewKey returns a fresh secret read from crypto/rand.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateSecret, err)
	}
	return key, nil
}

// HexKey encodes a secret the way it is persisted.
func HexKey(key []byte) string {
	return hex.EncodeToString(key)
}

// DecodeHexKey decodes a persisted secret.
func DecodeHexKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidSecret
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// Counter returns floor((t - Epoch) / Period).
func Counter(p Params, t time.Time) int64 {
	step := p.PeriodSeconds()
	delta := t.Unix() - p.Epoch
	c := delta / step
	if delta%step != 0 && delta < 0 {
		c--
	}
	return c
}

// GenerateHOTP computes the RFC 4226 code for counter, zero-padded to digits.
func GenerateHOTP(key []byte, counter int64, digits int) string {
	if digits <= 0 || digits > maxDigits {
		digits = DefaultDigits
	}

	var msg [8]byte
	c := uint64(counter)
	for i := 7; i >= 0; i-- {
		msg[i] = byte(c & 0xff)
		c >>= 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects a 31-bit window.
	offset := sum[len(sum)-1] & 0x0f
	bin := int64(sum[offset]&0x7f)<<24 |
		int64(sum[offset+1])<<16 |
		int64(sum[offset+2])<<8 |
		int64(sum[offset+3])

	return fmt.Sprintf("%0*d", digits, bin%pow10[digits])
}

// Generate returns the code for the step containing t.
func Generate(secret []byte, p Params, t time.Time) (string, error) {
	if len(secret) == 0 {
		return "", ErrInvalidSecret
	}
	p = p.normalize()
	return GenerateHOTP(secret, Counter(p, t), p.Digits), nil
}

// Verify reports whether candidate matches any step in
// [counter-Drift, counter+Drift] around t.
func Verify(secret []byte, p Params, candidate string, t time.Time) bool {
	_, ok := Match(secret, p, candidate, t)
	return ok
}

// Match is Verify that also returns the matching counter.
// The window is scanned from the oldest step and the first match wins.
func Match(secret []byte, p Params, candidate string, t time.Time) (int64, bool) {
	if len(secret) == 0 {
		return 0, false
	}
	p = p.normalize()

	candidate = strings.TrimSpace(candidate)
	if !isNumeric(candidate, p.Digits) {
		return 0, false
	}

	counter := Counter(p, t)
	for c := counter - int64(p.Drift); c <= counter+int64(p.Drift); c++ {
		code := GenerateHOTP(secret, c, p.Digits)
		if subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) == 1 {
			return c, true
		}
	}
	return 0, false
}

func isNumeric(s string, digits int) bool {
	if len(s) != digits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
