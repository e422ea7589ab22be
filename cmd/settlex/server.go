package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/settlex/settlex/handler"
	"github.com/settlex/settlex/modules/account"
	"github.com/settlex/settlex/modules/twofactor"
	"github.com/settlex/settlex/pkg/clientip"
	"github.com/settlex/settlex/pkg/httpserver"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/requestid"
	"github.com/settlex/settlex/pkg/urls"
	"github.com/settlex/settlex/pkg/view"
	"github.com/settlex/settlex/svc/auth"
)

const (
	accountMount = "/accounts"
	setupMount   = "/account/two_factor/setup"
	verifyMount  = "/account/two_factor/verify"
)

//go:embed static
var staticFiles embed.FS

// server builds the HTTP routes of an app.
type server struct {
	*app
	urls         *urls.Registry
	errorHandler handler.ErrorHandler
}

func newServer(a *app) (*server, error) {
	reg := urls.NewRegistry()
	if err := account.RegisterURLs(reg, accountMount); err != nil {
		return nil, err
	}
	if err := twofactor.RegisterURLs(reg, setupMount); err != nil {
		return nil, err
	}
	if err := twofactor.RegisterVerifyURL(reg, verifyMount); err != nil {
		return nil, err
	}
	reg.MustRegister("home", "/")
	reg.MustRegister("landing", a.cfg.TwoFactor.LandingURL)

	errorPage := func(p handler.ErrorPageParams) templ.Component {
		return view.ErrorPage(p.StatusCode, p.Message, p.RequestID)
	}
	return &server{
		app:  a,
		urls: reg,
		errorHandler: handler.NewErrorHandler(a.log, handler.ErrorHandlerConfig{
			ErrorPage: errorPage,
			Toast: func(p handler.ErrorPageParams) templ.Component {
				return view.ErrorToast(p.Message)
			},
		}),
	}, nil
}

// reverse resolves a route registered in newServer; a miss is a programming
// error and yields the site root.
func (s *server) reverse(name string) string {
	p, err := s.urls.Reverse(name)
	if err != nil {
		s.log.Error("route did not resolve", slog.String("route", name), logger.Error(err))
		return "/"
	}
	return p
}

func (s *server) routes() http.Handler {
	passwords := account.NewPasswordService(s.cfg.Account, s.users, s.sessions,
		account.WithErrorHandler(s.errorHandler),
		account.WithLimiter(s.limiter),
		account.WithAudit(s.audit),
		account.WithLogger(s.log),
	)
	setup := twofactor.NewSetupService(s.cfg.TwoFactor, s.devices, s.sessions, s.urls,
		twofactor.WithMetrics(s.metrics),
		twofactor.WithLimiter(s.limiter),
		twofactor.WithAudit(s.audit),
		twofactor.WithErrorHandler(s.errorHandler),
		twofactor.WithLogger(s.log),
	)
	verify := twofactor.NewVerifyService(s.cfg.TwoFactor, s.devices, s.sessions, s.urls,
		twofactor.WithVerifyMetrics(s.metrics),
		twofactor.WithVerifyLimiter(s.limiter),
		twofactor.WithVerifyAudit(s.audit),
		twofactor.WithVerifyErrorHandler(s.errorHandler),
		twofactor.WithVerifyLogger(s.log),
	)
	enforcer := twofactor.NewEnforcer(s.cfg.TwoFactor, s.devices, s.urls,
		twofactor.WithEnforcerMetrics(s.metrics),
		twofactor.WithEnforcerLogger(s.log),
	)

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.New(s.cfg.ClientIP).Middleware,
		s.metrics.Middleware,
		middleware.Recoverer,
	)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(s.log, s.cfg.ReadyTimeout, s.checks...))
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	static, _ := fs.Sub(staticFiles, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler(http.FileServerFS(static))))

	r.Group(func(r chi.Router) {
		r.Use(
			s.sessions.Middleware,
			auth.LoadUser(s.users, s.log),
			enforcer.Middleware,
		)

		wrap := func(fn handler.HandlerFunc[struct{}]) http.HandlerFunc {
			return handler.Wrap(fn, handler.WithErrorHandler[struct{}](s.errorHandler))
		}
		requireUser := auth.RequireUser(s.reverse("login"))

		r.Get("/", wrap(s.home))
		r.With(requireUser).Get(s.cfg.TwoFactor.LandingURL, wrap(s.landing))
		r.With(requireUser).Get(s.cfg.TwoFactor.AdminURL, wrap(s.admin))
		r.Mount(accountMount, account.Router(account.RouterOptions{Password: passwords}))
		r.Mount(setupMount, setup.Handle())
		r.Mount(verifyMount, verify.Handle())
	})

	return r
}

func staticHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		next.ServeHTTP(w, r)
	})
}
