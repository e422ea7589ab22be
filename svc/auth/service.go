package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/settlex/settlex/pkg/logger"
)

// Service authenticates users with email and password.
type Service struct {
	store      UserStore
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithBcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func NewService(store UserStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUserParams describes a new account.
type CreateUserParams struct {
	Email       string
	Password    string
	IsStaff     bool
	IsSuperuser bool
}

// CreateUser hashes the password and stores an active user.
func (s *Service) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	email := normalizeEmail(p.Email)
	if email == "" {
		return nil, ErrInvalidUser
	}
	if p.Password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.Join(ErrFailedToHash, err)
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		IsStaff:      p.IsStaff || p.IsSuperuser,
		IsSuperuser:  p.IsSuperuser,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created",
		logger.UserID(u.ID),
		logger.Component("auth"),
		logger.Event("user.created"),
	)
	return u, nil
}

// Authenticate returns the active user matching the credentials. Every
// failure is reported as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.ErrorContext(ctx, "failed to load user", logger.Error(err), logger.Component("auth"))
		}
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil || !u.IsActive {
		s.logger.WarnContext(ctx, "login rejected",
			logger.UserID(u.ID),
			logger.Component("auth"),
			logger.Event("login.rejected"),
		)
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns the user with id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.store.GetByID(ctx, id)
}
