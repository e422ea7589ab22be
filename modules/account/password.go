package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/settlex/settlex/handler"
	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/binder"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/svc/auth"
)

// Config holds the redirect targets of the login flow.
type Config struct {
	// AfterLoginURL is used when the login form carries no safe "next".
	AfterLoginURL string `env:"ACCOUNT_AFTER_LOGIN_URL" envDefault:"/"`
	// AfterLogoutURL is where logout sends the browser.
	AfterLogoutURL string `env:"ACCOUNT_AFTER_LOGOUT_URL" envDefault:"/accounts/login/"`
}

type PasswordService struct {
	cfg          Config
	auth         *auth.Service
	sessions     *session.Manager
	views        Views
	limiter      *ratelimiter.Limiter
	audit        audit.Logger
	errorHandler handler.ErrorHandler
	logger       *slog.Logger
}

// Views renders the account pages.
type Views struct {
	LoginPage func(LoginPageParams) templ.Component
}

// LoginPageParams is the data for the login page.
type LoginPageParams struct {
	Email string
	Next  string
	Error string
}

type PasswordOption func(*PasswordService)

func WithViews(v Views) PasswordOption {
	return func(s *PasswordService) {
		if v.LoginPage != nil {
			s.views = v
		}
	}
}

// WithLimiter throttles login attempts per email address.
func WithLimiter(l *ratelimiter.Limiter) PasswordOption {
	return func(s *PasswordService) {
		s.limiter = l
	}
}

// WithAudit records login and logout attempts.
func WithAudit(l audit.Logger) PasswordOption {
	return func(s *PasswordService) {
		s.audit = l
	}
}

func WithErrorHandler(h handler.ErrorHandler) PasswordOption {
	return func(s *PasswordService) {
		s.errorHandler = h
	}
}

func WithLogger(log *slog.Logger) PasswordOption {
	return func(s *PasswordService) {
		if log != nil {
			s.logger = log
		}
	}
}

func NewPasswordService(cfg Config, authSvc *auth.Service, sessions *session.Manager, opts ...PasswordOption) *PasswordService {
	if cfg.AfterLoginURL == "" {
		cfg.AfterLoginURL = "/"
	}
	s := &PasswordService{
		cfg:      cfg,
		auth:     authSvc,
		sessions: sessions,
		views:    DefaultViews(),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PasswordService) Handle() http.Handler {
	r := chi.NewRouter()

	r.HandleFunc(loginPath, handler.Wrap(s.login,
		handler.WithBinders[LoginRequest](binder.Query(), binder.Form()),
		handler.WithErrorHandler[LoginRequest](s.errorHandler),
	))
	r.HandleFunc(logoutPath, handler.Wrap(s.logout,
		handler.WithErrorHandler[struct{}](s.errorHandler),
	))

	return r
}

// LoginRequest is bound from the query string on GET and the form on POST.
type LoginRequest struct {
	Email    string `form:"email" query:"-"`
	Password string `form:"password" query:"-"`
	Next     string `form:"next" query:"next"`
}

func (s *PasswordService) login(ctx handler.Context, req LoginRequest) handler.Response {
	r := ctx.Request()
	next := s.safeNext(req.Next)

	if auth.GetUserFromContext(r.Context()) != nil && r.Method != http.MethodPost {
		return handler.Redirect(next)
	}
	if r.Method != http.MethodPost {
		return handler.Templ(s.views.LoginPage(LoginPageParams{Next: req.Next}))
	}

	key := "login:" + strings.ToLower(strings.TrimSpace(req.Email))
	if res, err := s.limiter.Allow(r.Context(), key); err != nil {
		s.logger.ErrorContext(r.Context(), "attempt limiter failed", logger.Error(err), logger.Component("account"))
	} else if !res.Allowed() {
		s.logger.WarnContext(r.Context(), "login attempts throttled",
			logger.Component("account"),
			logger.Event("login.throttled"),
		)
		s.record(r.Context(), audit.ActionLogin, audit.WithResult(audit.ResultDenied), audit.WithMetadata("email", req.Email))
		return handler.Templ(s.views.LoginPage(LoginPageParams{
			Email: req.Email,
			Next:  req.Next,
			Error: "Too many failed attempts. Please try again later.",
		}))
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			return handler.Fail(err)
		}
		s.record(r.Context(), audit.ActionLogin, audit.WithResult(audit.ResultFailure), audit.WithMetadata("email", req.Email))
		return handler.Templ(s.views.LoginPage(LoginPageParams{
			Email: req.Email,
			Next:  req.Next,
			Error: "Please enter a correct email and password.",
		}))
	}

	if _, err := s.sessions.Authenticate(r.Context(), ctx.ResponseWriter(), r, user.ID); err != nil {
		return handler.Fail(err)
	}
	if err := s.limiter.Reset(r.Context(), key); err != nil {
		s.logger.WarnContext(r.Context(), "failed to reset attempt limiter", logger.Error(err), logger.Component("account"))
	}

	s.logger.InfoContext(r.Context(), "user logged in",
		logger.UserID(user.ID),
		logger.Component("account"),
		logger.Event("login"),
	)
	s.record(r.Context(), audit.ActionLogin, audit.WithUser(user.ID))
	return handler.Redirect(next)
}

func (s *PasswordService) logout(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	if err := s.sessions.Destroy(r.Context(), ctx.ResponseWriter(), r); err != nil {
		s.logger.WarnContext(r.Context(), "failed to clear session", logger.Error(err), logger.Component("account"))
	}
	if user := auth.GetUserFromContext(r.Context()); user != nil {
		s.logger.InfoContext(r.Context(), "user logged out",
			logger.UserID(user.ID),
			logger.Component("account"),
			logger.Event("logout"),
		)
		s.record(r.Context(), audit.ActionLogout, audit.WithUser(user.ID))
	}
	return handler.Redirect(s.cfg.AfterLogoutURL)
}

func (s *PasswordService) record(ctx context.Context, action string, opts ...audit.EventOption) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, action, opts...); err != nil {
		s.logger.ErrorContext(ctx, "failed to record audit event",
			slog.String("action", action),
			logger.Error(err),
			logger.Component("account"),
		)
	}
}

// safeNext accepts only local absolute paths.
func (s *PasswordService) safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return s.cfg.AfterLoginURL
	}
	return next
}
