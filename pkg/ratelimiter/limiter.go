package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Config is the bucket shape shared by every key of a Limiter.
type Config struct {
	Capacity       int           `env:"CAPACITY" envDefault:"5"`
	RefillRate     int           `env:"REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"1m"`
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// ttl is how long an untouched bucket takes to fill up again.
func (c Config) ttl() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals+1) * c.RefillInterval
}

// Result describes a single Allow call.
type Result struct {
	Limit int
	// Remaining is negative when the attempt was denied.
	Remaining int
	ResetAt   time.Time
}

func (r *Result) Allowed() bool {
	return r == nil || r.Remaining >= 0
}

// RetryAfter is zero for allowed attempts.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Store keeps bucket state. Take refills the bucket for now, removes n tokens
// when that many are left and reports the remaining count, or -1 without
// touching the bucket when they are not.
type Store interface {
	Take(ctx context.Context, key string, n int, cfg Config, now time.Time) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

type Limiter struct {
	store  Store
	config Config
	now    func() time.Time
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

func New(store Store, cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &Limiter{store: store, config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Allow spends one token of key.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	return l.AllowN(ctx, key, 1)
}

func (l *Limiter) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if l == nil {
		return &Result{}, nil
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTokenCount, n)
	}

	remaining, resetAt, err := l.store.Take(ctx, key, n, l.config, l.now())
	if err != nil {
		return nil, err
	}
	return &Result{Limit: l.config.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

// Reset refills key completely.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.store.Reset(ctx, key)
}
