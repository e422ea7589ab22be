package device

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/totp"
)

// Service implements the device lifecycle on top of a Store.
type Service struct {
	store  Store
	params totp.Params
	log    *slog.Logger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for device events.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithParams overrides the OTP parameters applied to new devices.
func WithParams(p totp.Params) ServiceOption {
	return func(s *Service) {
		s.params = p
	}
}

// WithClock replaces the time source. Tests use it to pin OTP windows.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a device service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		params: totp.DefaultParams(),
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Create stores a new unconfirmed device for userID.
// A zero digits value falls back to the service default.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, secret []byte, digits int) (*Device, error) {
	if userID == uuid.Nil || len(secret) == 0 {
		return nil, ErrInvalidDevice
	}
	if digits <= 0 {
		digits = s.params.Digits
	}

	now := s.now()
	d := &Device{
		ID:          uuid.New(),
		UserID:      userID,
		Key:         totp.HexKey(secret),
		Period:      s.params.Period,
		Epoch:       s.params.Epoch,
		Digits:      digits,
		Drift:       s.params.Drift,
		LastCounter: unusedCounter,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "otp device created",
		logger.UserID(userID.String()),
		logger.DeviceID(d.ID.String()),
	)
	return d, nil
}

// Get loads a device and checks it belongs to owner.
// A device owned by someone else is reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id, owner uuid.UUID) (*Device, error) {
	d, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != owner {
		return nil, ErrNotFound
	}
	return d, nil
}

// Confirm marks d confirmed and promotes it to the user's default device.
// Any other device of the same user loses the default name.
func (s *Service) Confirm(ctx context.Context, d *Device) (*Device, error) {
	if d == nil {
		return nil, ErrInvalidDevice
	}

	updated := d.clone()
	updated.Confirmed = true
	updated.Name = DefaultName
	updated.UpdatedAt = s.now()
	if err := s.store.Promote(ctx, updated); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrKeyImmutable) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToUpdate, err)
	}

	s.log.InfoContext(ctx, "otp device confirmed",
		logger.UserID(d.UserID.String()),
		logger.DeviceID(d.ID.String()),
	)
	return updated, nil
}

// DefaultDevice returns the confirmed device named DefaultName.
func (s *Service) DefaultDevice(ctx context.Context, userID uuid.UUID) (*Device, error) {
	devices, err := s.store.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.IsDefault() {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

// HasConfirmed reports whether userID owns at least one confirmed device.
func (s *Service) HasConfirmed(ctx context.Context, userID uuid.UUID) (bool, error) {
	devices, err := s.store.ListByUser(ctx, userID, true)
	if err != nil {
		return false, err
	}
	return len(devices) > 0, nil
}

// Verify checks token against d at the current time.
// A token whose step was already used is rejected with ErrTokenReplayed;
// on success the matched step is persisted and d is updated in place.
func (s *Service) Verify(ctx context.Context, d *Device, token string) (bool, error) {
	if d == nil {
		return false, ErrInvalidDevice
	}

	secret, err := d.Secret()
	if err != nil {
		return false, err
	}

	counter, ok := totp.Match(secret, d.Params(), token, s.now())
	if !ok {
		s.log.InfoContext(ctx, "otp token rejected",
			logger.UserID(d.UserID.String()),
			logger.DeviceID(d.ID.String()),
		)
		return false, nil
	}
	if counter <= d.LastCounter {
		s.log.WarnContext(ctx, "otp token replayed",
			logger.UserID(d.UserID.String()),
			logger.DeviceID(d.ID.String()),
		)
		return false, ErrTokenReplayed
	}

	if err := s.RecordCounter(ctx, d, counter); err != nil {
		return false, err
	}
	return true, nil
}

// RecordCounter persists the last used OTP step of d.
func (s *Service) RecordCounter(ctx context.Context, d *Device, counter int64) error {
	if d == nil {
		return ErrInvalidDevice
	}

	updated := d.clone()
	updated.LastCounter = counter
	updated.UpdatedAt = s.now()
	if err := s.store.Update(ctx, updated); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrKeyImmutable) {
			return err
		}
		return errors.Join(ErrFailedToUpdate, err)
	}
	*d = *updated
	return nil
}
