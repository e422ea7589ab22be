package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/metrics"
	"github.com/settlex/settlex/pkg/provision"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/totp"
	"github.com/settlex/settlex/pkg/wizard"
	"github.com/settlex/settlex/svc/auth"
)

// Field names posted by the step forms.
var (
	fieldToken = wizard.FieldName(wizard.StepValidation, "token")
)

// dataDeviceID is the validation step's cleaned data key.
const dataDeviceID = "device_id"

type welcomeStep struct{}

func (welcomeStep) Step() wizard.Step { return wizard.StepWelcome }

func (welcomeStep) Prepare(context.Context, *wizard.State, *device.Device) (wizard.View, error) {
	return wizard.View{Step: wizard.StepWelcome}, nil
}

func (welcomeStep) Submit(context.Context, *wizard.State, *device.Device, url.Values) (map[string]string, error) {
	return map[string]string{}, nil
}

// generatorStep provisions the device the user scans into an authenticator.
type generatorStep struct {
	devices *device.Service
	encoder *provision.Encoder
	auditor auditor
	logger  *slog.Logger
}

func (generatorStep) Step() wizard.Step { return wizard.StepGenerator }

// Prepare reuses d when it is the unconfirmed device already bound to the
// run, otherwise it creates one and binds it.
func (g generatorStep) Prepare(ctx context.Context, state *wizard.State, d *device.Device) (wizard.View, error) {
	user := auth.GetUserFromContext(ctx)
	if user == nil {
		return wizard.View{}, ErrNoUser
	}

	if d == nil || d.Confirmed {
		secret, err := totp.NewKey()
		if err != nil {
			return wizard.View{}, err
		}
		d, err = g.devices.Create(ctx, user.ID, secret, 0)
		if err != nil {
			return wizard.View{}, err
		}
		state.SetDeviceID(d.ID)
		g.auditor.record(ctx, audit.ActionDeviceCreated, audit.ResultSuccess, user.ID, d.ID)
	}

	view := wizard.View{Step: wizard.StepGenerator, Data: map[string]any{}}
	payload, err := g.encoder.Encode(d, user.Email)
	if err != nil {
		g.logger.ErrorContext(ctx, "provisioning unavailable",
			logger.UserID(user.ID),
			logger.DeviceID(d.ID),
			logger.Error(err),
			logger.Step(wizard.StepGenerator.String()),
		)
		view.Data["Unavailable"] = true
		return view, nil
	}

	view.Data["SecretBase32"] = payload.SecretBase32
	view.Data["URI"] = payload.URI
	view.Data["QRDataURI"] = payload.QRDataURI
	return view, nil
}

func (generatorStep) Submit(context.Context, *wizard.State, *device.Device, url.Values) (map[string]string, error) {
	return map[string]string{}, nil
}

// validationStep checks a token against the device bound on the generator
// step. The device is confirmed later, when the wizard completes.
type validationStep struct {
	devices *device.Service
	limiter *ratelimiter.Limiter
	metrics *metrics.Metrics
	auditor auditor
	logger  *slog.Logger
}

func (validationStep) Step() wizard.Step { return wizard.StepValidation }

func (validationStep) Prepare(_ context.Context, _ *wizard.State, d *device.Device) (wizard.View, error) {
	digits := totp.DefaultDigits
	if d != nil {
		digits = d.Digits
	}
	return wizard.View{
		Step: wizard.StepValidation,
		Data: map[string]any{"TokenField": fieldToken, "Digits": digits},
	}, nil
}

func (v validationStep) Submit(ctx context.Context, _ *wizard.State, d *device.Device, form url.Values) (map[string]string, error) {
	if d == nil {
		return nil, wizard.NewValidationError("", msgDeviceMissing)
	}

	token := strings.TrimSpace(form.Get(fieldToken))
	if token == "" {
		return nil, wizard.NewValidationError(fieldToken, msgTokenRequired)
	}

	key := "otp:" + d.UserID.String()
	res, err := v.limiter.Allow(ctx, key)
	switch {
	case err != nil:
		// An unavailable limiter store does not lock users out.
		v.logger.ErrorContext(ctx, "attempt limiter failed", logger.UserID(d.UserID), logger.Error(err))
	case !res.Allowed():
		v.logger.WarnContext(ctx, "token attempts throttled",
			logger.UserID(d.UserID),
			logger.Event("twofactor.throttled"),
		)
		v.auditor.record(ctx, audit.ActionTokenChecked, audit.ResultDenied, d.UserID, d.ID)
		return nil, wizard.NewValidationError(fieldToken, msgThrottled)
	}

	ok, err := v.devices.Verify(ctx, d, token)
	v.metrics.TokenChecked(ok && err == nil)
	result := audit.ResultFailure
	if ok && err == nil {
		result = audit.ResultSuccess
		if err := v.limiter.Reset(ctx, key); err != nil {
			v.logger.WarnContext(ctx, "failed to reset attempt limiter", logger.UserID(d.UserID), logger.Error(err))
		}
	}
	if !errors.Is(err, device.ErrNotFound) {
		v.auditor.record(ctx, audit.ActionTokenChecked, result, d.UserID, d.ID)
	}
	switch {
	case errors.Is(err, device.ErrTokenReplayed):
		return nil, wizard.NewValidationError(fieldToken, msgInvalidToken)
	case errors.Is(err, device.ErrNotFound):
		return nil, wizard.NewValidationError("", msgDeviceMissing)
	case errors.Is(err, totp.ErrInvalidSecret):
		v.logger.ErrorContext(ctx, "stored device key is corrupt",
			logger.UserID(d.UserID),
			logger.DeviceID(d.ID),
			logger.Error(err),
		)
		return nil, wizard.NewValidationError(fieldToken, msgInvalidToken)
	case err != nil:
		return nil, err
	case !ok:
		return nil, wizard.NewValidationError(fieldToken, msgInvalidToken)
	}

	return map[string]string{dataDeviceID: d.ID.String()}, nil
}
