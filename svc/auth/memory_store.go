package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]User
	byEmail map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MemoryStore) Create(_ context.Context, u *User) error {
	if u == nil || u.ID == uuid.Nil || u.Email == "" {
		return ErrInvalidUser
	}
	email := normalizeEmail(u.Email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return ErrEmailAlreadyExists
	}
	if _, ok := m.byID[u.ID]; ok {
		return ErrInvalidUser
	}
	m.byID[u.ID] = *u
	m.byEmail[email] = u.ID
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	id, ok := m.byEmail[normalizeEmail(email)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.GetByID(ctx, id)
}
