package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/requestid"
)

// ErrorPageParams is the data an error page is rendered with.
type ErrorPageParams struct {
	Message    string
	StatusCode int
	RequestID  string
}

// ErrorHandlerConfig configures NewErrorHandler.
type ErrorHandlerConfig struct {
	// ErrorPage renders the page for regular requests; plain text when nil.
	ErrorPage func(ErrorPageParams) templ.Component
	// Toast renders the DataStar variant; ErrorPage is used when nil.
	Toast func(ErrorPageParams) templ.Component
	// ToastTarget is where DataStar requests get the error patched into.
	ToastTarget string
}

// classify maps err to a status and a user-facing message. Anything that is
// not an HTTPError is reported as a 500 without leaking its text.
func classify(err error) (int, string) {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Key
	}
	return http.StatusInternalServerError, "An error occurred processing your request"
}

// NewErrorHandler logs the failure with request attributes and renders an
// error page (or a DataStar patch).
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toast-container"
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		requestID := requestid.FromContext(r.Context())
		status, message := classify(err)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestID),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			logger.Path(r.URL.Path),
			logger.Component("error_handler"),
		)

		if cfg.ErrorPage == nil {
			http.Error(ctx.ResponseWriter(), message, status)
			return
		}

		params := ErrorPageParams{Message: message, StatusCode: status, RequestID: requestID}
		var resp Response
		if IsDataStar(r) {
			toast := cfg.ErrorPage
			if cfg.Toast != nil {
				toast = cfg.Toast
			}
			resp = Templ(toast(params), WithTarget(cfg.ToastTarget), WithPatchMode(PatchPrepend))
		} else {
			resp = TemplWithStatus(status, cfg.ErrorPage(params))
		}
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error page",
				logger.RequestID(requestID),
				logger.Error(renderErr),
			)
		}
	}
}
