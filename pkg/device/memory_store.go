package device

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps devices in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[uuid.UUID]*Device
	order   []uuid.UUID
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[uuid.UUID]*Device),
	}
}

func (m *MemoryStore) Create(ctx context.Context, d *Device) error {
	if d == nil || d.ID == uuid.Nil || d.UserID == uuid.Nil {
		return ErrInvalidDevice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.devices[d.ID]; exists {
		return ErrInvalidDevice
	}
	m.devices[d.ID] = d.clone()
	m.order = append(m.order, d.ID)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.clone(), nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID, confirmedOnly bool) ([]*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Device
	for _, id := range m.order {
		d := m.devices[id]
		if d.UserID != userID || (confirmedOnly && !d.Confirmed) {
			continue
		}
		out = append(out, d.clone())
	}
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.devices[d.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Key != d.Key {
		return ErrKeyImmutable
	}
	m.devices[d.ID] = d.clone()
	return nil
}

func (m *MemoryStore) Promote(ctx context.Context, d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.devices[d.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Key != d.Key {
		return ErrKeyImmutable
	}
	for id, other := range m.devices {
		if id == d.ID || other.UserID != d.UserID || other.Name != d.Name {
			continue
		}
		other.Name = ""
		other.UpdatedAt = d.UpdatedAt
	}
	m.devices[d.ID] = d.clone()
	return nil
}

// Len returns the number of stored devices.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices)
}
