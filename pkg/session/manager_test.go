package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlex/settlex/pkg/cookie"
	"github.com/settlex/settlex/pkg/session"
)

func setupManager(t *testing.T) *session.Manager {
	t.Helper()

	cookieMgr, err := cookie.New([]string{"test-secret-key-that-is-long-enough"})
	require.NoError(t, err)

	cfg := session.DefaultConfig()
	cfg.CookieName = "test-sid"
	cfg.CleanupInterval = 0

	m := session.New(
		session.WithCookieManager(cookieMgr),
		session.WithConfig(cfg),
	)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestManagerEnsure(t *testing.T) {
	t.Parallel()

	manager := setupManager(t)
	ctx := context.Background()

	t.Run("creates anonymous session", func(t *testing.T) {
		w := httptest.NewRecorder()
		sess, err := manager.Ensure(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.False(t, sess.IsAuthenticated())
		assert.NotEmpty(t, sess.Token)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "test-sid", cookies[0].Name)
	})

	t.Run("reuses existing session", func(t *testing.T) {
		w1 := httptest.NewRecorder()
		sess1, err := manager.Ensure(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)

		sess2, err := manager.Ensure(ctx, httptest.NewRecorder(), requestWithCookies(w1))
		require.NoError(t, err)
		assert.Equal(t, sess1.ID, sess2.ID)
	})

	t.Run("replaces forged cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "test-sid", Value: "forged"})

		sess, err := manager.Ensure(ctx, httptest.NewRecorder(), r)
		require.NoError(t, err)
		assert.NotEqual(t, "forged", sess.Token)
	})
}

func TestManagerAuthenticate(t *testing.T) {
	t.Parallel()

	manager := setupManager(t)
	ctx := context.Background()
	userID := uuid.New()

	w1 := httptest.NewRecorder()
	anon, err := manager.Ensure(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	anon.Set("theme", "dark")
	require.NoError(t, manager.Save(ctx, anon))

	w2 := httptest.NewRecorder()
	authed, err := manager.Authenticate(ctx, w2, requestWithCookies(w1), userID)
	require.NoError(t, err)
	assert.Equal(t, anon.ID, authed.ID)
	assert.NotEqual(t, anon.Token, authed.Token, "token rotated on login")
	assert.Equal(t, userID, *authed.UserID)
	assert.False(t, authed.IsVerified())

	_, err = manager.Get(ctx, requestWithCookies(w1))
	assert.Error(t, err, "old token no longer resolves")

	got, err := manager.Get(ctx, requestWithCookies(w2))
	require.NoError(t, err)
	theme, ok := got.GetString("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", theme)

	uid, ok := session.UserIDFromContext(session.WithSession(ctx, got))
	assert.True(t, ok)
	assert.Equal(t, userID, uid)
}

func TestManagerVerify(t *testing.T) {
	t.Parallel()

	manager := setupManager(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	anon, err := manager.Ensure(ctx, w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.ErrorIs(t, manager.Verify(ctx, anon, uuid.New()), session.ErrNotAuthenticated)

	w2 := httptest.NewRecorder()
	sess, err := manager.Authenticate(ctx, w2, requestWithCookies(w), uuid.New())
	require.NoError(t, err)

	deviceID := uuid.New()
	require.NoError(t, manager.Verify(ctx, sess, deviceID))

	got, err := manager.Get(ctx, requestWithCookies(w2))
	require.NoError(t, err)
	assert.True(t, got.IsVerified())
	assert.Equal(t, deviceID, *got.OTPDeviceID)

	w3 := httptest.NewRecorder()
	relogged, err := manager.Authenticate(ctx, w3, requestWithCookies(w2), *got.UserID)
	require.NoError(t, err)
	assert.False(t, relogged.IsVerified(), "new login requires a new verification")
}

func TestManagerDestroy(t *testing.T) {
	t.Parallel()

	manager := setupManager(t)
	ctx := context.Background()

	w1 := httptest.NewRecorder()
	_, err := manager.Ensure(ctx, w1, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	w2 := httptest.NewRecorder()
	require.NoError(t, manager.Destroy(ctx, w2, requestWithCookies(w1)))
	assert.Equal(t, -1, w2.Result().Cookies()[0].MaxAge)

	_, err = manager.Get(ctx, requestWithCookies(w1))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	manager := setupManager(t)
	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := session.FromContext(r.Context()); ok {
			w.Header().Set("X-Session-ID", sess.ID.String())
		}
	}))

	w1 := httptest.NewRecorder()
	sess, err := manager.Ensure(context.Background(), w1, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, requestWithCookies(w1))
	assert.Equal(t, sess.ID.String(), w2.Header().Get("X-Session-ID"))

	w3 := httptest.NewRecorder()
	handler.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w3.Code)
	assert.Empty(t, w3.Header().Get("X-Session-ID"))
}

func TestNewPanicsWithoutCookieManager(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { session.New() })
}

func TestConfigTimeouts(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	idle, max := cfg.GetTimeouts(true)
	assert.Equal(t, 2*time.Hour, idle)
	assert.Equal(t, 14*24*time.Hour, max)
}
