package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/settlex/settlex/pkg/cookie"
	"github.com/settlex/settlex/pkg/logger"
)

// Manager handles session operations
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	log           *slog.Logger
	activityChan  chan activityUpdate
	done          chan struct{}
}

type activityUpdate struct {
	token string
	time  time.Time
}

// New creates a session manager. Without WithStore sessions live in memory;
// without WithTransport a cookie manager is required.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:       DefaultConfig(),
		log:          logger.Discard(),
		activityChan: make(chan activityUpdate, 1000),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			panic("session: cookie manager is required when using default cookie transport")
		}
		m.transport = NewCookieTransport(m.cookieManager, m.config.CookieName, m.config.SecureCookies, m.cookieOptions...)
	}

	go m.activityWorker()

	return m
}

// Ensure returns the request's session, creating an anonymous one if needed.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err == nil {
		if m.shouldUpdateActivity(session) {
			m.queueActivityUpdate(session.Token)
		}
		return session, nil
	}

	session, err = m.createSession(ctx, nil)
	if err != nil {
		return nil, err
	}

	idle, _ := m.config.GetTimeouts(false)
	if err := m.transport.SetToken(w, session.Token, idle); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}

	return session, nil
}

// Get retrieves an existing session
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Authenticate binds userID to the request's session and rotates its token.
// Session data survives; any previous OTP verification does not.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err != nil {
		session, err = m.createSession(ctx, &userID)
		if err != nil {
			return nil, err
		}
	} else {
		newToken, err := generateToken()
		if err != nil {
			return nil, err
		}

		_ = m.store.Delete(ctx, session.Token)

		session.Token = newToken
		session.UserID = &userID
		session.OTPDeviceID = nil
		idle, max := m.config.GetTimeouts(true)
		session.ExpiresAt = m.calculateExpiry(session.CreatedAt, time.Now(), idle, max)
		session.Touch()

		if err := m.store.Create(ctx, session); err != nil {
			return nil, err
		}
	}

	idle, _ := m.config.GetTimeouts(true)
	if err := m.transport.SetToken(w, session.Token, idle); err != nil {
		return nil, err
	}

	m.log.InfoContext(ctx, "session authenticated", logger.UserID(userID.String()))
	return session, nil
}

// Verify records that the session's user proved possession of deviceID.
func (m *Manager) Verify(ctx context.Context, session *Session, deviceID uuid.UUID) error {
	if !session.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	session.OTPDeviceID = &deviceID
	session.Touch()
	if err := m.store.Update(ctx, session); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "session otp verified",
		logger.UserID(session.UserID.String()),
		logger.DeviceID(deviceID.String()),
	)
	return nil
}

// Save persists changes made to session.
func (m *Manager) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	return m.store.Update(ctx, session)
}

// Destroy deletes the session
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}

	return m.transport.ClearToken(w)
}

func (m *Manager) createSession(ctx context.Context, userID *uuid.UUID) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	idle, max := m.config.GetTimeouts(userID != nil)
	now := time.Now()

	session := NewSession(token, userID, m.calculateExpiry(now, now, idle, max).Sub(now))

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (m *Manager) shouldUpdateActivity(session *Session) bool {
	return time.Since(session.LastActivityAt) >= m.config.ActivityUpdateThreshold
}

// queueActivityUpdate drops the update when the worker is saturated.
func (m *Manager) queueActivityUpdate(token string) {
	select {
	case m.activityChan <- activityUpdate{token: token, time: time.Now()}:
	default:
	}
}

func (m *Manager) activityWorker() {
	for {
		select {
		case update := <-m.activityChan:
			m.applyActivity(update)
		case <-m.done:
			for {
				select {
				case update := <-m.activityChan:
					m.applyActivity(update)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) applyActivity(update activityUpdate) {
	err := m.store.UpdateActivity(context.Background(), update.token, update.time)
	if err != nil && !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
		m.log.Warn("failed to update session activity", logger.Error(err))
	}
}

// Close stops the activity worker.
func (m *Manager) Close() error {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	return nil
}

// calculateExpiry returns the earlier of the idle and the absolute deadline.
func (m *Manager) calculateExpiry(createdAt, now time.Time, idle, max time.Duration) time.Time {
	idleExpiry := now.Add(idle)
	maxExpiry := createdAt.Add(max)

	if maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
