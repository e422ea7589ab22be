package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
	CreatedAt    time.Time
}

// Privileged reports whether u is an administrative account.
func (u *User) Privileged() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
