package twofactor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/metrics"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/pkg/urls"
	"github.com/settlex/settlex/svc/auth"
)

// Routes reachable by unenrolled users and by enrolled users whose session
// has not passed the token step yet.
var (
	enrollRoutes = []string{"login", RouteSetup, "logout"}
	verifyRoutes = []string{"login", RouteVerify, "logout"}
)

// DeviceFinder looks up a user's default device; *device.Service
// implements it.
type DeviceFinder interface {
	DefaultDevice(ctx context.Context, userID uuid.UUID) (*device.Device, error)
}

// Enforcer redirects unenrolled users to the setup wizard and enrolled users
// with an unverified session to the login token step.
type Enforcer struct {
	cfg      Config
	devices  DeviceFinder
	resolver urls.Resolver
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// EnforcerOption configures an Enforcer.
type EnforcerOption func(*Enforcer)

func WithEnforcerMetrics(m *metrics.Metrics) EnforcerOption {
	return func(e *Enforcer) {
		e.metrics = m
	}
}

func WithEnforcerLogger(log *slog.Logger) EnforcerOption {
	return func(e *Enforcer) {
		if log != nil {
			e.logger = log
		}
	}
}

// NewEnforcer creates the middleware. Route names are resolved through
// resolver on each request that needs them.
func NewEnforcer(cfg Config, devices DeviceFinder, resolver urls.Resolver, opts ...EnforcerOption) *Enforcer {
	e := &Enforcer{
		cfg:      cfg,
		devices:  devices,
		resolver: resolver,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("twofactor.enforcer"))
	return e
}

// Middleware must run after the session middleware and auth.LoadUser.
func (e *Enforcer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if target, ok := e.redirectTarget(r); ok {
			e.metrics.EnforcementRedirect()
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (e *Enforcer) redirectTarget(r *http.Request) (string, bool) {
	ctx := r.Context()
	user := auth.GetUserFromContext(ctx)
	if user == nil || user.Privileged() {
		return "", false
	}
	if hasPrefix(r.URL.Path, e.cfg.ExemptPrefixes) {
		return "", false
	}

	_, err := e.devices.DefaultDevice(ctx, user.ID)
	switch {
	case err == nil:
		return e.verifyTarget(r, user)
	case !errors.Is(err, device.ErrNotFound):
		e.logger.ErrorContext(ctx, "default device lookup failed",
			logger.UserID(user.ID),
			logger.Error(err),
		)
	}

	if hasPrefix(r.URL.Path, e.allowList(ctx, enrollRoutes)) {
		return "", false
	}

	e.logger.InfoContext(ctx, "redirecting unenrolled user to setup",
		logger.UserID(user.ID),
		logger.Path(r.URL.Path),
		logger.Event("twofactor.enforced"),
	)
	return e.routeURL(ctx, RouteSetup, e.cfg.SetupURL), true
}

// verifyTarget sends an enrolled user to the token step until the session
// is OTP-verified.
func (e *Enforcer) verifyTarget(r *http.Request, user *auth.User) (string, bool) {
	ctx := r.Context()
	if sess, ok := session.FromContext(ctx); ok && sess.IsVerified() {
		return "", false
	}
	if hasPrefix(r.URL.Path, e.allowList(ctx, verifyRoutes)) {
		return "", false
	}

	e.logger.InfoContext(ctx, "redirecting unverified session to token step",
		logger.UserID(user.ID),
		logger.Path(r.URL.Path),
		logger.Event("twofactor.verify_required"),
	)
	target := e.routeURL(ctx, RouteVerify, e.cfg.VerifyURL)
	return target + "?next=" + url.QueryEscape(r.URL.RequestURI()), true
}

// allowList resolves names. Names that fail to resolve are skipped.
func (e *Enforcer) allowList(ctx context.Context, names []string) []string {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, err := e.resolver.Reverse(name)
		if err != nil {
			e.metrics.ResolutionFailure()
			e.logger.WarnContext(ctx, "allow-list route did not resolve",
				slog.String("route", name),
				logger.Error(err),
			)
			continue
		}
		paths = append(paths, p)
	}
	return paths
}

func (e *Enforcer) routeURL(ctx context.Context, name, fallback string) string {
	p, err := e.resolver.Reverse(name)
	if err != nil {
		e.logger.WarnContext(ctx, "route did not resolve, using configured path",
			slog.String("route", name),
			logger.Error(err),
		)
		return fallback
	}
	return p
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
