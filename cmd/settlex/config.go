package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/settlex/settlex/modules/account"
	"github.com/settlex/settlex/modules/twofactor"
	"github.com/settlex/settlex/pkg/clientip"
	"github.com/settlex/settlex/pkg/config"
	"github.com/settlex/settlex/pkg/cookie"
	"github.com/settlex/settlex/pkg/httpserver"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/pg"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/redis"
	"github.com/settlex/settlex/pkg/requestid"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/pkg/totp"
)

var (
	errInvalidDigits  = errors.New("TOTP_DIGITS must be between 6 and 8")
	errInvalidDrift   = errors.New("TOTP_DRIFT must not be negative")
	errInvalidBackend = errors.New("SESSION_BACKEND must be memory or redis")
	errNoDatabase     = errors.New("PG_CONN_URL is required for this command")
)

// appConfig is shared by every command.
type appConfig struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Name string `env:"APP_NAME" envDefault:"settlex"`
	PG   pg.Config
}

// serveConfig is everything the web process needs.
type serveConfig struct {
	App appConfig

	TOTPDigits     int           `env:"TOTP_DIGITS" envDefault:"6"`
	TOTPDrift      int           `env:"TOTP_DRIFT" envDefault:"1"`
	DeviceCacheTTL time.Duration `env:"DEVICE_CACHE_TTL" envDefault:"30s"`
	ReadyTimeout   time.Duration `env:"READY_TIMEOUT" envDefault:"3s"`

	HTTP      httpserver.Config
	ClientIP  clientip.Config
	Redis     redis.Config
	Session   session.Config
	Cookie    cookie.Config
	TwoFactor twofactor.Config
	Account   account.Config
	// Throttle limits password and token attempts per account.
	Throttle ratelimiter.Config `envPrefix:"THROTTLE_"`
}

func (c *serveConfig) Validate() error {
	var errs []error
	if c.TOTPDigits < 6 || c.TOTPDigits > 8 {
		errs = append(errs, fmt.Errorf("%w: got %d", errInvalidDigits, c.TOTPDigits))
	}
	if c.TOTPDrift < 0 {
		errs = append(errs, errInvalidDrift)
	}
	if c.Session.Backend != "memory" && c.Session.Backend != "redis" {
		errs = append(errs, fmt.Errorf("%w: got %q", errInvalidBackend, c.Session.Backend))
	}
	return errors.Join(errs...)
}

func (c *serveConfig) totpParams() totp.Params {
	p := totp.DefaultParams()
	p.Digits = c.TOTPDigits
	p.Drift = c.TOTPDrift
	return p
}

func loadConfig[T any](v *T, envFiles []string) error {
	var opts []config.Option
	if len(envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(envFiles...))
	}
	return config.Load(v, opts...)
}

func newLogger(cfg appConfig) *slog.Logger {
	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
	)
	logger.SetAsDefault(log)
	return log
}
