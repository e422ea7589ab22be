package audit

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of *pgxpool.Pool used by PGStorage.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PGStorage appends events to the audit_events table.
type PGStorage struct {
	db DB
}

func NewPGStorage(db DB) *PGStorage {
	return &PGStorage{db: db}
}

const insertEvent = `INSERT INTO audit_events
	(id, action, result, user_id, session_id, resource, resource_id, error, request_id, ip, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12)`

func (s *PGStorage) Store(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		meta := []byte("{}")
		if len(e.Metadata) > 0 {
			var err error
			if meta, err = json.Marshal(e.Metadata); err != nil {
				return errors.Join(ErrEventValidation, err)
			}
		}
		batch.Queue(insertEvent,
			e.ID, e.Action, string(e.Result), e.UserID, e.SessionID, e.Resource, e.ResourceID,
			e.Error, e.RequestID, e.IP, string(meta), e.CreatedAt,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	var errs []error
	for range events {
		if _, err := results.Exec(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, results.Close())
	return errors.Join(errs...)
}
