// Package logger builds the service's *slog.Logger.
//
// New creates a JSON or text handler, applies environment presets and static
// attributes, and wraps the handler with a decorator that pulls request-scoped
// values (request id, user id) out of the context on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, cfg.AppName),
//	    logger.WithContextExtractors(requestid.LogExtractor()),
//	)
//	log.InfoContext(ctx, "otp device confirmed",
//	    logger.UserID(userID),
//	    logger.DeviceID(deviceID),
//	)
//
// Attribute helpers in attr.go keep key names consistent across packages.
// Error and UserID return an empty slog.Attr for nil input, which slog drops.
package logger
