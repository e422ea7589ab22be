package twofactor

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/logger"
)

// auditor records audit events; failures are logged and never fail the request.
type auditor struct {
	trail  audit.Logger
	logger *slog.Logger
}

func (a auditor) record(ctx context.Context, action string, result audit.Result, userID, deviceID uuid.UUID) {
	if a.trail == nil {
		return
	}
	err := a.trail.Log(ctx, action,
		audit.WithUser(userID),
		audit.WithResource("otp_device", deviceID.String()),
		audit.WithResult(result),
	)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to record audit event",
			slog.String("action", action),
			logger.Error(err),
		)
	}
}
