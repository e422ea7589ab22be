package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/clientip"
	"github.com/settlex/settlex/pkg/cookie"
	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/httpserver"
	"github.com/settlex/settlex/pkg/logger"
	"github.com/settlex/settlex/pkg/metrics"
	"github.com/settlex/settlex/pkg/pg"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/redis"
	"github.com/settlex/settlex/pkg/requestid"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/svc/auth"
)

// app holds the process-wide dependencies of the web server.
type app struct {
	cfg      serveConfig
	log      *slog.Logger
	metrics  *metrics.Metrics
	users    *auth.Service
	devices  *device.Service
	sessions *session.Manager
	limiter  *ratelimiter.Limiter
	audit    audit.Logger
	checks   []httpserver.Check

	limiterStore *ratelimiter.MemoryStore

	pool  *pgxpool.Pool
	redis *goredis.Client
}

// newApp connects the configured backends. Without PG_CONN_URL users and
// devices are kept in memory, which only suits local development.
func newApp(ctx context.Context, cfg serveConfig, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	m, err := metrics.New()
	if err != nil {
		return nil, err
	}
	a.metrics = m

	var (
		userStore   auth.UserStore
		deviceStore device.Store
		trail       audit.Storage
	)
	if cfg.App.PG.ConnectionString == "" {
		log.WarnContext(ctx, "PG_CONN_URL is empty, using in-memory stores")
		userStore = auth.NewMemoryStore()
		deviceStore = device.NewMemoryStore()
		trail = audit.NewMemoryStorage()
	} else {
		pool, err := pg.Connect(ctx, cfg.App.PG)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.checks = append(a.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
		userStore = auth.NewPGStore(pool)
		deviceStore = device.NewPGStore(pool)
		trail = audit.NewPGStorage(pool)
	}
	a.audit = newAuditLogger(trail)

	a.users = auth.NewService(userStore, auth.WithLogger(log))
	a.devices = device.NewService(
		device.NewCachedStore(deviceStore, cfg.DeviceCacheTTL),
		device.WithParams(cfg.totpParams()),
		device.WithLogger(log.With(logger.Component("device"))),
	)

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		a.close()
		return nil, err
	}
	sessionOpts := []session.Option{
		session.WithConfig(cfg.Session),
		session.WithCookieManager(cookies),
		session.WithLogger(log.With(logger.Component("session"))),
	}
	if cfg.Session.Backend == "redis" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = client
		a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		sessionOpts = append(sessionOpts, session.WithStore(session.NewRedisStore(client)))
	}
	a.sessions = session.New(sessionOpts...)

	var attempts ratelimiter.Store
	if a.redis != nil {
		attempts = ratelimiter.NewRedisStore(a.redis, "")
	} else {
		a.limiterStore = ratelimiter.NewMemoryStore()
		attempts = a.limiterStore
	}
	if a.limiter, err = ratelimiter.New(attempts, cfg.Throttle); err != nil {
		a.close()
		return nil, err
	}

	return a, nil
}

func newAuditLogger(storage audit.Storage) audit.Logger {
	return audit.NewLogger(storage,
		audit.WithUserIDExtractor(session.UserIDFromContext),
		audit.WithSessionIDExtractor(func(ctx context.Context) (string, bool) {
			sess, ok := session.FromContext(ctx)
			if !ok {
				return "", false
			}
			return sess.ID.String(), true
		}),
		audit.WithRequestIDExtractor(nonEmpty(requestid.FromContext)),
		audit.WithIPExtractor(nonEmpty(clientip.FromContext)),
	)
}

func nonEmpty(fn func(context.Context) string) func(context.Context) (string, bool) {
	return func(ctx context.Context) (string, bool) {
		v := fn(ctx)
		return v, v != ""
	}
}

// close releases the backends. It is safe to call on a partially built app.
func (a *app) close() {
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.Close())
	}
	if a.limiterStore != nil {
		a.limiterStore.Close()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Error("failed to release resources", logger.Error(err))
	}
}
