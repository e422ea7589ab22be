// Package qrcode renders provisioning URIs as PNG QR codes on top of
// github.com/skip2/go-qrcode.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: content cannot be empty")
	ErrFailedToEncode = errors.New("qrcode: failed to encode image")
)

// DefaultSize is the image edge in pixels.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Level is the error-correction level of the symbol.
type Level = skipqrcode.RecoveryLevel

const (
	Low     Level = skipqrcode.Low
	Medium  Level = skipqrcode.Medium
	High    Level = skipqrcode.High
	Highest Level = skipqrcode.Highest
)

type options struct {
	size  int
	level Level
}

// Option tunes PNG rendering.
type Option func(*options)

// WithSize sets the image edge in pixels. Non-positive values keep the default.
func WithSize(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.size = px
		}
	}
}

// WithLevel sets the error-correction level.
func WithLevel(l Level) Option {
	return func(o *options) { o.level = l }
}

// PNG encodes content as a square PNG image.
func PNG(content string, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	o := options{size: DefaultSize, level: Medium}
	for _, opt := range opts {
		opt(&o)
	}

	img, err := skipqrcode.Encode(content, o.level, o.size)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncode, err)
	}
	return img, nil
}

// DataURI wraps PNG bytes so they can be used as an <img src>.
func DataURI(png []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png)
}
