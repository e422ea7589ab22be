package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
	expiresAt  time.Time
}

// refill adds the tokens earned since lastRefill. lastRefill advances by
// whole intervals so partial intervals are not lost.
func (b *bucket) refill(cfg Config, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < cfg.RefillInterval {
		return
	}
	maxIntervals := int64(cfg.Capacity/cfg.RefillRate + 1)
	intervals := min(int64(elapsed/cfg.RefillInterval), maxIntervals)
	b.tokens = min(b.tokens+int(intervals)*cfg.RefillRate, cfg.Capacity)
	if b.tokens == cfg.Capacity {
		b.lastRefill = now
		return
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * cfg.RefillInterval)
}

// MemoryStore keeps buckets in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	cleanupInterval time.Duration
	stop            chan struct{}
	once            sync.Once
}

type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired buckets are dropped; 0 disables
// the background sweep.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(m *MemoryStore) {
		m.cleanupInterval = d
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		buckets:         make(map[string]*bucket),
		cleanupInterval: 5 * time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cleanupInterval > 0 {
		go m.cleanup()
	}
	return m
}

func (m *MemoryStore) Take(_ context.Context, key string, n int, cfg Config, now time.Time) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || now.After(b.expiresAt) {
		b = &bucket{tokens: cfg.Capacity, lastRefill: now}
		m.buckets[key] = b
	}
	b.refill(cfg, now)
	b.expiresAt = now.Add(cfg.ttl())

	resetAt := b.lastRefill.Add(cfg.RefillInterval)
	if b.tokens < n {
		return -1, resetAt, nil
	}
	b.tokens -= n
	return b.tokens, resetAt, nil
}

func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets, key)
	return nil
}

// Len reports the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

func (m *MemoryStore) cleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			m.removeExpired(now)
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryStore) removeExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, b := range m.buckets {
		if now.After(b.expiresAt) {
			delete(m.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine.
func (m *MemoryStore) Close() {
	m.once.Do(func() { close(m.stop) })
}
