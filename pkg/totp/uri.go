package totp

import (
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// URIParams describes an otpauth:// provisioning URI.
type URIParams struct {
	Secret      []byte
	Issuer      string
	AccountName string
	Digits      int
	PeriodSecs  int64
}

// EncodeBase32 returns the unpadded base32 form of key, as typed into apps by hand.
func EncodeBase32(key []byte) string {
	return b32.EncodeToString(key)
}

// KeyURI builds the Key Uri Format string:
//
//	otpauth://totp/<urlencoded "Issuer:account">?secret=..&issuer=..&algorithm=SHA1&digits=..&period=..
//
// Parameter order is fixed.
func KeyURI(p URIParams) (string, error) {
	if len(p.Secret) == 0 {
		return "", ErrInvalidSecret
	}
	if p.Issuer == "" {
		return "", ErrMissingIssuer
	}
	if p.AccountName == "" {
		return "", ErrMissingAccountName
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.PeriodSecs == 0 {
		p.PeriodSecs = int64(DefaultPeriod.Seconds())
	}

	label := quote(p.Issuer + ":" + p.AccountName)
	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s&algorithm=%s&digits=%d&period=%d",
		label,
		EncodeBase32(p.Secret),
		quote(p.Issuer),
		DefaultAlgorithm,
		p.Digits,
		p.PeriodSecs,
	), nil
}

// quote percent-encodes everything outside the unreserved set, spaces as %20.
func quote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
