package audit

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage keeps events in memory, newest last.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Store(ctx context.Context, events ...Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// Events returns a copy of the stored events, optionally only those with
// the given action.
func (m *MemoryStorage) Events(action ...string) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(action) == 0 {
		return slices.Clone(m.events)
	}
	var out []Event
	for _, e := range m.events {
		if slices.Contains(action, e.Action) {
			out = append(out, e)
		}
	}
	return out
}
