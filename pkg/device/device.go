package device

import (
	"time"

	"github.com/google/uuid"

	"github.com/settlex/settlex/pkg/totp"
)

// DefaultName marks the device enforcement treats as the user's default.
const DefaultName = "default"

// unusedCounter is LastCounter before the first successful verification.
const unusedCounter int64 = -1

// Device is a TOTP credential owned by a single user.
// Key holds the hex-encoded secret and never changes after creation.
type Device struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Key         string
	Period      time.Duration
	Epoch       int64
	Digits      int
	Drift       int
	Confirmed   bool
	LastCounter int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Params returns the OTP settings of the device.
func (d *Device) Params() totp.Params {
	return totp.Params{
		Period: d.Period,
		Epoch:  d.Epoch,
		Digits: d.Digits,
		Drift:  d.Drift,
	}
}

// Secret decodes the stored key. A malformed key wraps totp.ErrInvalidSecret.
func (d *Device) Secret() ([]byte, error) {
	return totp.DecodeHexKey(d.Key)
}

// IsDefault reports whether the device is the user's confirmed default.
func (d *Device) IsDefault() bool {
	return d != nil && d.Confirmed && d.Name == DefaultName
}

func (d *Device) clone() *Device {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
