package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/settlex/settlex/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by PGStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps users in the users table.
type PGStore struct {
	db DB
}

func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, email, password_hash, is_staff, is_superuser, is_active, created_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u == nil || u.ID == uuid.Nil || u.Email == "" {
		return ErrInvalidUser
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, normalizeEmail(u.Email), u.PasswordHash, u.IsStaff, u.IsSuperuser, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PGStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, normalizeEmail(email))
}

func (s *PGStore) get(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrUserNotFound, err)
	}
	return &u, nil
}
