package audit

import (
	"context"

	"github.com/google/uuid"
)

type contextExtractor func(context.Context) (string, bool)

type Option func(*logger)

// WithUserIDExtractor reads the acting user; WithUser on the event wins.
func WithUserIDExtractor(fn func(context.Context) (uuid.UUID, bool)) Option {
	return func(l *logger) {
		l.userIDExtractor = fn
	}
}

func WithSessionIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *logger) {
		l.sessionIDExtractor = fn
	}
}

func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *logger) {
		l.requestIDExtractor = fn
	}
}

func WithIPExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *logger) {
		l.ipExtractor = fn
	}
}

// WithUser sets the acting user.
func WithUser(id uuid.UUID) EventOption {
	return func(e *Event) {
		e.UserID = &id
	}
}

// WithResource names the object the action touched.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

func WithResult(result Result) EventOption {
	return func(e *Event) {
		e.Result = result
	}
}
