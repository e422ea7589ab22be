package device

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract the service depends on.
type Store interface {
	// Create inserts a new device. ID and timestamps are set by the caller.
	Create(ctx context.Context, d *Device) error

	// GetByID returns ErrNotFound when no device has the id.
	GetByID(ctx context.Context, id uuid.UUID) (*Device, error)

	// ListByUser returns the user's devices ordered by creation time.
	ListByUser(ctx context.Context, userID uuid.UUID, confirmedOnly bool) ([]*Device, error)

	// Update persists mutable fields. Changing Key yields ErrKeyImmutable.
	Update(ctx context.Context, d *Device) error

	// Promote persists d like Update and, in the same write, blanks the name
	// of every other device of d.UserID that carries d.Name. Either both
	// changes land or neither does.
	Promote(ctx context.Context, d *Device) error
}
