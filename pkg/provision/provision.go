// Package provision turns a stored OTP device into what an authenticator app
// needs: the base32 secret, the otpauth:// URI and a QR code of that URI.
package provision

import (
	"errors"

	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/qrcode"
	"github.com/settlex/settlex/pkg/totp"
)

var (
	// ErrDecode means the device key could not be decoded. It always wraps
	// totp.ErrInvalidSecret and indicates a corrupted record.
	ErrDecode = errors.New("provision: failed to decode device key")
	ErrRender = errors.New("provision: failed to render provisioning data")
)

// Payload is the provisioning data shown on the generator step.
type Payload struct {
	SecretBase32 string
	URI          string
	QRCode       []byte
	QRDataURI    string
}

// Encoder builds provisioning payloads for a fixed issuer.
type Encoder struct {
	Issuer string
	QRSize int
}

// NewEncoder creates an encoder with the default QR size.
func NewEncoder(issuer string) *Encoder {
	return &Encoder{Issuer: issuer, QRSize: qrcode.DefaultSize}
}

// Encode builds the payload for d labelled with account.
func (e *Encoder) Encode(d *device.Device, account string) (*Payload, error) {
	if d == nil {
		return nil, errors.Join(ErrDecode, totp.ErrInvalidSecret)
	}

	secret, err := d.Secret()
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}

	uri, err := totp.KeyURI(totp.URIParams{
		Secret:      secret,
		Issuer:      e.Issuer,
		AccountName: account,
		Digits:      d.Digits,
		PeriodSecs:  d.Params().PeriodSeconds(),
	})
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	png, err := qrcode.PNG(uri, qrcode.WithSize(e.QRSize))
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	return &Payload{
		SecretBase32: totp.EncodeBase32(secret),
		URI:          uri,
		QRCode:       png,
		QRDataURI:    qrcode.DataURI(png),
	}, nil
}
