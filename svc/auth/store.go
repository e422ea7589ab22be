package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserStore persists users. Lookups by email are case-insensitive and
// missing users yield ErrUserNotFound.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
