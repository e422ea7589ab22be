package device

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/settlex/settlex/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by PGStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore persists devices in the otp_devices table.
type PGStore struct {
	db DB
}

// NewPGStore wraps a pgx pool.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const deviceColumns = `id, user_id, name, key, step, t0, digits, tolerance, confirmed, last_t, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, d *Device) error {
	if d == nil || d.ID == uuid.Nil || d.UserID == uuid.Nil {
		return ErrInvalidDevice
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO otp_devices (`+deviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.UserID, d.Name, d.Key, int64(d.Period/time.Second), d.Epoch, d.Digits, d.Drift,
		d.Confirmed, d.LastCounter, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) || pg.IsForeignKeyViolationError(err) {
			return errors.Join(ErrInvalidDevice, err)
		}
		return errors.Join(ErrFailedToCreate, err)
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id uuid.UUID) (*Device, error) {
	row := s.db.QueryRow(ctx, `SELECT `+deviceColumns+` FROM otp_devices WHERE id = $1`, id)
	d, err := scanDevice(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID uuid.UUID, confirmedOnly bool) ([]*Device, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+deviceColumns+` FROM otp_devices
		WHERE user_id = $1 AND (NOT $2 OR confirmed)
		ORDER BY created_at, id`,
		userID, confirmedOnly,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}
	return update(ctx, s.db, d)
}

func (s *PGStore) Promote(ctx context.Context, d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE otp_devices SET name = '', updated_at = $4
			WHERE user_id = $1 AND name = $2 AND id <> $3`,
			d.UserID, d.Name, d.ID, d.UpdatedAt,
		)
		if err != nil {
			return errors.Join(ErrFailedToUpdate, err)
		}
		return update(ctx, tx, d)
	})
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func update(ctx context.Context, db execQuerier, d *Device) error {
	tag, err := db.Exec(ctx, `
		UPDATE otp_devices
		SET name = $2, confirmed = $3, last_t = $4, updated_at = $5
		WHERE id = $1 AND key = $6`,
		d.ID, d.Name, d.Confirmed, d.LastCounter, d.UpdatedAt, d.Key,
	)
	if err != nil {
		return errors.Join(ErrFailedToUpdate, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM otp_devices WHERE id = $1)`, d.ID).Scan(&exists); err != nil {
		return errors.Join(ErrFailedToUpdate, err)
	}
	if exists {
		return ErrKeyImmutable
	}
	return ErrNotFound
}

func scanDevice(row pgx.Row) (*Device, error) {
	var (
		d    Device
		step int64
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Key, &step, &d.Epoch, &d.Digits, &d.Drift,
		&d.Confirmed, &d.LastCounter, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Period = time.Duration(step) * time.Second
	return &d, nil
}
