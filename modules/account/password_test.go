package account_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/settlex/settlex/modules/account"
	"github.com/settlex/settlex/pkg/audit"
	"github.com/settlex/settlex/pkg/cookie"
	"github.com/settlex/settlex/pkg/ratelimiter"
	"github.com/settlex/settlex/pkg/session"
	"github.com/settlex/settlex/pkg/urls"
	"github.com/settlex/settlex/svc/auth"
)

type env struct {
	router   http.Handler
	sessions *session.Manager
}

func setup(t *testing.T, opts ...account.PasswordOption) env {
	t.Helper()

	cookieMgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"})
	require.NoError(t, err)
	cfg := session.DefaultConfig()
	cfg.CleanupInterval = 0
	sessions := session.New(session.WithCookieManager(cookieMgr), session.WithConfig(cfg))
	t.Cleanup(func() { _ = sessions.Close() })

	authSvc := auth.NewService(auth.NewMemoryStore(), auth.WithBcryptCost(bcrypt.MinCost))
	_, err = authSvc.CreateUser(context.Background(), auth.CreateUserParams{Email: "jane@example.com", Password: "s3cret"})
	require.NoError(t, err)

	svc := account.NewPasswordService(account.Config{AfterLoginURL: "/", AfterLogoutURL: "/accounts/login/"}, authSvc, sessions, opts...)

	r := chi.NewRouter()
	r.Use(sessions.Middleware, auth.LoadUser(authSvc, nil))
	r.Mount("/accounts", account.Router(account.RouterOptions{Password: svc}))
	return env{router: r, sessions: sessions}
}

func postLogin(values url.Values, cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/accounts/login/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestLoginPage(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/login/?next=/my-settlements/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="email"`)
	assert.Contains(t, rec.Body.String(), `value="/my-settlements/"`)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		form         url.Values
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "valid credentials with next",
			form:         url.Values{"email": {"jane@example.com"}, "password": {"s3cret"}, "next": {"/my-settlements/"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/my-settlements/",
		},
		{
			name:         "external next is ignored",
			form:         url.Values{"email": {"jane@example.com"}, "password": {"s3cret"}, "next": {"//evil.example"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/",
		},
		{
			name:       "wrong password re-renders",
			form:       url.Values{"email": {"jane@example.com"}, "password": {"nope"}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := setup(t)

			rec := httptest.NewRecorder()
			e.router.ServeHTTP(rec, postLogin(tt.form))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
				assert.NotEmpty(t, rec.Result().Cookies())
				return
			}
			assert.Contains(t, rec.Body.String(), "Please enter a correct email and password.")
		})
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()
	e := setup(t)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, postLogin(url.Values{"email": {"jane@example.com"}, "password": {"s3cret"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()

	r := httptest.NewRequest(http.MethodGet, "/accounts/login/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	sess, err := e.sessions.Get(context.Background(), r)
	require.NoError(t, err)
	assert.True(t, sess.IsAuthenticated())

	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusSeeOther, rec.Code, "logged-in users are sent away from the login page")

	logout := httptest.NewRequest(http.MethodPost, "/accounts/logout/", nil)
	for _, c := range cookies {
		logout.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, logout)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/accounts/login/", rec.Header().Get("Location"))

	_, err = e.sessions.Get(context.Background(), r)
	assert.Error(t, err)
}

func TestRegisterURLs(t *testing.T) {
	t.Parallel()

	reg := urls.NewRegistry()
	require.NoError(t, account.RegisterURLs(reg, "/accounts"))

	login, err := reg.Reverse(account.RouteLogin)
	require.NoError(t, err)
	assert.Equal(t, "/accounts/login/", login)

	logout, err := reg.Reverse(account.RouteLogout)
	require.NoError(t, err)
	assert.Equal(t, "/accounts/logout/", logout)

	assert.ErrorIs(t, account.RegisterURLs(reg, "/accounts"), urls.ErrDuplicateName)
}

func TestLoginThrottle(t *testing.T) {
	t.Parallel()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)
	limiter, err := ratelimiter.New(store, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)
	e := setup(t, account.WithLimiter(limiter))

	login := func(password string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.router.ServeHTTP(rec, postLogin(url.Values{"email": {"Jane@Example.com"}, "password": {password}}))
		return rec
	}

	rec := login("s3cret")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	for range 2 {
		rec = login("wrong")
		assert.Contains(t, rec.Body.String(), "Please enter a correct email and password.")
	}

	rec = login("s3cret")
	assert.Equal(t, http.StatusOK, rec.Code, "correct password is refused while throttled")
	assert.Contains(t, rec.Body.String(), "Too many failed attempts.")
}

func TestLoginAudit(t *testing.T) {
	t.Parallel()

	trail := audit.NewMemoryStorage()
	e := setup(t, account.WithAudit(audit.NewLogger(trail)))

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, postLogin(url.Values{"email": {"jane@example.com"}, "password": {"nope"}}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, postLogin(url.Values{"email": {"jane@example.com"}, "password": {"s3cret"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	logout := httptest.NewRequest(http.MethodPost, "/accounts/logout/", nil)
	for _, c := range rec.Result().Cookies() {
		logout.AddCookie(c)
	}
	e.router.ServeHTTP(httptest.NewRecorder(), logout)

	logins := trail.Events(audit.ActionLogin)
	require.Len(t, logins, 2)
	assert.Equal(t, audit.ResultFailure, logins[0].Result)
	assert.Nil(t, logins[0].UserID)
	assert.Equal(t, "jane@example.com", logins[0].Metadata["email"])
	assert.Equal(t, audit.ResultSuccess, logins[1].Result)
	require.NotNil(t, logins[1].UserID)

	logouts := trail.Events(audit.ActionLogout)
	require.Len(t, logouts, 1)
	assert.Equal(t, *logins[1].UserID, *logouts[0].UserID)
}
