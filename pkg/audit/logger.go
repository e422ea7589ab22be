package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type logger struct {
	storage            Storage
	userIDExtractor    func(context.Context) (uuid.UUID, bool)
	sessionIDExtractor contextExtractor
	requestIDExtractor contextExtractor
	ipExtractor        contextExtractor
	now                func() time.Time
}

// NewLogger panics on a nil storage.
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.record(ctx, action, ResultSuccess, nil, opts)
}

func (l *logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	return l.record(ctx, action, ResultError, err, opts)
}

func (l *logger) record(ctx context.Context, action string, result Result, cause error, opts []EventOption) error {
	event := l.eventFromContext(ctx)
	event.ID = uuid.New()
	event.Action = action
	event.Result = result
	event.CreatedAt = l.now().UTC()
	if cause != nil {
		event.Error = cause.Error()
	}
	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}
	if err := l.storage.Store(ctx, event); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (l *logger) eventFromContext(ctx context.Context) Event {
	var event Event
	if l.userIDExtractor != nil {
		if id, ok := l.userIDExtractor(ctx); ok {
			event.UserID = &id
		}
	}
	event.SessionID = extract(ctx, l.sessionIDExtractor)
	event.RequestID = extract(ctx, l.requestIDExtractor)
	event.IP = extract(ctx, l.ipExtractor)
	return event
}

func extract(ctx context.Context, fn contextExtractor) string {
	if fn == nil {
		return ""
	}
	v, _ := fn(ctx)
	return v
}
