package twofactor_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/settlex/settlex/modules/twofactor"
	"github.com/settlex/settlex/pkg/cookie"
	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/metrics"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/pkg/totp"
	"github.com/settlex/settlex/pkg/urls"
	"github.com/settlex/settlex/svc/auth"
)

const (
	setupPath   = "/account/two_factor/setup/"
	landingPath = "/my-settlements/"
	loginPath   = "/accounts/login/"
	verifyPath  = "/account/two_factor/verify/"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

var errStoreDown = errors.New("store unavailable")

// faultyStore lets tests make devices disappear, return a corrupt key or
// fail lookups.
type faultyStore struct {
	*device.MemoryStore
	missing atomic.Bool
	corrupt atomic.Bool
	down    atomic.Bool
}

func (s *faultyStore) GetByID(ctx context.Context, id uuid.UUID) (*device.Device, error) {
	if s.down.Load() {
		return nil, errStoreDown
	}
	if s.missing.Load() {
		return nil, device.ErrNotFound
	}
	d, err := s.MemoryStore.GetByID(ctx, id)
	if err == nil && s.corrupt.Load() {
		d.Key = "not-hex"
	}
	return d, err
}

type harness struct {
	t        *testing.T
	router   http.Handler
	sessions *session.Manager
	devices  *device.Service
	store    *faultyStore
	auth     *auth.Service
	metrics  *metrics.Metrics
}

func newHarness(t *testing.T, opts ...twofactor.SetupOption) *harness {
	t.Helper()
	return buildHarness(t, opts, nil)
}

func newVerifyHarness(t *testing.T, opts ...twofactor.VerifyOption) *harness {
	t.Helper()
	return buildHarness(t, nil, opts)
}

func buildHarness(t *testing.T, setupOpts []twofactor.SetupOption, verifyOpts []twofactor.VerifyOption) *harness {
	t.Helper()

	cookieMgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"})
	require.NoError(t, err)
	sessCfg := session.DefaultConfig()
	sessCfg.CleanupInterval = 0
	sessions := session.New(session.WithCookieManager(cookieMgr), session.WithConfig(sessCfg))
	t.Cleanup(func() { _ = sessions.Close() })

	m, err := metrics.New()
	require.NoError(t, err)

	store := &faultyStore{MemoryStore: device.NewMemoryStore()}
	devices := device.NewService(device.NewCachedStore(store, time.Minute),
		device.WithClock(func() time.Time { return fixedNow }))
	authSvc := auth.NewService(auth.NewMemoryStore(), auth.WithBcryptCost(bcrypt.MinCost))

	reg := urls.NewRegistry()
	reg.MustRegister("login", loginPath)
	reg.MustRegister("logout", "/accounts/logout/")
	require.NoError(t, twofactor.RegisterURLs(reg, setupPath))
	require.NoError(t, twofactor.RegisterVerifyURL(reg, verifyPath))

	cfg := twofactor.DefaultConfig()
	setup := twofactor.NewSetupService(cfg, devices, sessions, reg, append([]twofactor.SetupOption{twofactor.WithMetrics(m)}, setupOpts...)...)
	verify := twofactor.NewVerifyService(cfg, devices, sessions, reg, append([]twofactor.VerifyOption{twofactor.WithVerifyMetrics(m)}, verifyOpts...)...)
	enforcer := twofactor.NewEnforcer(cfg, devices, reg, twofactor.WithEnforcerMetrics(m))

	r := chi.NewRouter()
	r.Use(sessions.Middleware, auth.LoadUser(authSvc, nil), enforcer.Middleware)
	r.Mount(strings.TrimSuffix(setupPath, "/"), setup.Handle())
	r.Mount(strings.TrimSuffix(verifyPath, "/"), verify.Handle())
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Get(landingPath, ok)
	r.Get(loginPath, ok)
	r.Get("/static/app.css", ok)
	r.Get("/admin/", ok)

	return &harness{
		t:        t,
		router:   r,
		sessions: sessions,
		devices:  devices,
		store:    store,
		auth:     authSvc,
		metrics:  m,
	}
}

// client is a logged-in browser.
type client struct {
	h       *harness
	user    *auth.User
	cookies []*http.Cookie
}

func (h *harness) login(params auth.CreateUserParams) *client {
	h.t.Helper()
	if params.Password == "" {
		params.Password = "pw"
	}
	u, err := h.auth.CreateUser(context.Background(), params)
	require.NoError(h.t, err)

	rec := httptest.NewRecorder()
	_, err = h.sessions.Authenticate(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil), u.ID)
	require.NoError(h.t, err)
	return &client{h: h, user: u, cookies: rec.Result().Cookies()}
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(r)
}

func (c *client) step(name string, extra ...string) *httptest.ResponseRecorder {
	form := url.Values{"current_step": {name}}
	for i := 0; i+1 < len(extra); i += 2 {
		form.Set(extra[i], extra[i+1])
	}
	return c.post(setupPath, form)
}

func (c *client) do(r *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		r.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.router.ServeHTTP(rec, r)
	return rec
}

func (c *client) session() *session.Session {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range c.cookies {
		r.AddCookie(ck)
	}
	sess, err := c.h.sessions.Get(context.Background(), r)
	require.NoError(c.h.t, err)
	return sess
}

func (c *client) devices(confirmedOnly bool) []*device.Device {
	list, err := c.h.store.ListByUser(context.Background(), c.user.ID, confirmedOnly)
	require.NoError(c.h.t, err)
	return list
}

// tokens returns the valid token for d at fixedNow and one that no counter in
// the drift window accepts.
func tokens(t *testing.T, d *device.Device) (valid, invalid string) {
	t.Helper()
	secret, err := d.Secret()
	require.NoError(t, err)

	valid, err = totp.Generate(secret, d.Params(), fixedNow)
	require.NoError(t, err)

	accepted := map[string]bool{}
	for k := -d.Drift; k <= d.Drift; k++ {
		tok, err := totp.Generate(secret, d.Params(), fixedNow.Add(time.Duration(k)*d.Period))
		require.NoError(t, err)
		accepted[tok] = true
	}
	for i := 0; ; i++ {
		candidate := strings.Repeat(string(rune('0'+i%10)), d.Digits)
		if !accepted[candidate] {
			return valid, candidate
		}
	}
}
