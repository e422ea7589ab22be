package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/settlex/settlex/handler"
	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/binder"
	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/metrics"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/pkg/totp"
	"github.com/settlex/settlex/pkg/urls"
	"github.com/settlex/settlex/svc/auth"
)

// VerifyService asks enrolled users for a token from their default device
// after the password step and marks the session OTP-verified.
type VerifyService struct {
	cfg          Config
	devices      *device.Service
	sessions     *session.Manager
	resolver     urls.Resolver
	views        VerifyViews
	metrics      *metrics.Metrics
	limiter      *ratelimiter.Limiter
	auditor      auditor
	errorHandler handler.ErrorHandler
	logger       *slog.Logger
}

// VerifyOption configures a VerifyService.
type VerifyOption func(*VerifyService)

// WithVerifyViews replaces the built-in token page.
func WithVerifyViews(v VerifyViews) VerifyOption {
	return func(s *VerifyService) {
		if v.TokenPage != nil {
			s.views = v
		}
	}
}

func WithVerifyMetrics(m *metrics.Metrics) VerifyOption {
	return func(s *VerifyService) {
		s.metrics = m
	}
}

// WithVerifyLimiter throttles token guesses per user. Pass the limiter the
// setup wizard uses so both share one budget.
func WithVerifyLimiter(l *ratelimiter.Limiter) VerifyOption {
	return func(s *VerifyService) {
		s.limiter = l
	}
}

func WithVerifyAudit(l audit.Logger) VerifyOption {
	return func(s *VerifyService) {
		s.auditor.trail = l
	}
}

func WithVerifyErrorHandler(h handler.ErrorHandler) VerifyOption {
	return func(s *VerifyService) {
		s.errorHandler = h
	}
}

func WithVerifyLogger(log *slog.Logger) VerifyOption {
	return func(s *VerifyService) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewVerifyService creates the login token step.
func NewVerifyService(cfg Config, devices *device.Service, sessions *session.Manager, resolver urls.Resolver, opts ...VerifyOption) *VerifyService {
	s := &VerifyService{
		cfg:      cfg,
		devices:  devices,
		sessions: sessions,
		resolver: resolver,
		views:    DefaultVerifyViews(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("twofactor.verify"))
	s.auditor.logger = s.logger
	return s
}

// Handle serves the token form at the mount root.
func (s *VerifyService) Handle() http.Handler {
	r := chi.NewRouter()
	h := handler.Wrap(s.verify,
		handler.WithBinders[VerifyRequest](binder.Query(), binder.Form()),
		handler.WithErrorHandler[VerifyRequest](s.errorHandler),
	)
	r.Get("/", h)
	r.Post("/", h)
	return r
}

// VerifyRequest is bound from the query string on GET and the form on POST.
type VerifyRequest struct {
	Token string `form:"token" query:"-"`
	Next  string `form:"next" query:"next"`
}

func (s *VerifyService) verify(ctx handler.Context, req VerifyRequest) handler.Response {
	r := ctx.Request()
	c := r.Context()
	user := auth.GetUserFromContext(c)
	sess, ok := session.FromContext(c)
	if user == nil || !ok {
		return redirectToLogin(s.resolver, r)
	}

	next := localPath(req.Next, s.cfg.LandingURL)
	if sess.IsVerified() {
		return handler.Redirect(next)
	}

	d, err := s.devices.DefaultDevice(c, user.ID)
	if errors.Is(err, device.ErrNotFound) {
		return handler.Redirect(resolve(s.resolver, RouteSetup, s.cfg.SetupURL))
	}
	if err != nil {
		return handler.Fail(err)
	}
	// The listing may be cached; the replay counter must be current.
	if d, err = s.devices.Get(c, d.ID, user.ID); err != nil {
		return handler.Fail(err)
	}

	params := VerifyPageParams{Next: req.Next, TokenField: verifyTokenField, Digits: d.Digits}
	if r.Method != http.MethodPost {
		return handler.Templ(s.views.TokenPage(params))
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		params.Error = msgTokenRequired
		return handler.Templ(s.views.TokenPage(params))
	}

	key := "otp:" + user.ID.String()
	res, err := s.limiter.Allow(c, key)
	switch {
	case err != nil:
		s.logger.ErrorContext(c, "attempt limiter failed", logger.UserID(user.ID), logger.Error(err))
	case !res.Allowed():
		s.logger.WarnContext(c, "token attempts throttled",
			logger.UserID(user.ID),
			logger.Event("twofactor.throttled"),
		)
		s.auditor.record(c, audit.ActionLoginVerified, audit.ResultDenied, user.ID, d.ID)
		params.Error = msgThrottled
		return handler.Templ(s.views.TokenPage(params))
	}

	valid, err := s.checkToken(c, d, token)
	s.metrics.TokenChecked(valid)
	if err != nil {
		return handler.Fail(err)
	}
	if !valid {
		s.auditor.record(c, audit.ActionLoginVerified, audit.ResultFailure, user.ID, d.ID)
		params.Error = msgInvalidToken
		return handler.Templ(s.views.TokenPage(params))
	}

	if err := s.limiter.Reset(c, key); err != nil {
		s.logger.WarnContext(c, "failed to reset attempt limiter", logger.UserID(user.ID), logger.Error(err))
	}
	if err := s.sessions.Verify(c, sess, d.ID); err != nil {
		return handler.Fail(err)
	}
	s.auditor.record(c, audit.ActionLoginVerified, audit.ResultSuccess, user.ID, d.ID)
	return handler.Redirect(next)
}

// checkToken reports replayed tokens and unreadable keys as invalid.
func (s *VerifyService) checkToken(ctx context.Context, d *device.Device, token string) (bool, error) {
	ok, err := s.devices.Verify(ctx, d, token)
	switch {
	case errors.Is(err, device.ErrTokenReplayed):
		return false, nil
	case errors.Is(err, totp.ErrInvalidSecret):
		s.logger.ErrorContext(ctx, "stored device key is corrupt",
			logger.UserID(d.UserID),
			logger.DeviceID(d.ID),
			logger.Error(err),
		)
		return false, nil
	case err != nil:
		return false, err
	}
	return ok, nil
}

// localPath accepts only local absolute paths.
func localPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	return next
}
