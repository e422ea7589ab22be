package device

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// CachedStore memoizes confirmed-device listings, which the enforcement
// middleware reads on every request. Writes invalidate the owning user's entry.
type CachedStore struct {
	Store
	cache *gocache.Cache
}

// NewCachedStore wraps next with a TTL cache.
func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store: next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func confirmedKey(userID uuid.UUID) string {
	return "confirmed:" + userID.String()
}

func (c *CachedStore) ListByUser(ctx context.Context, userID uuid.UUID, confirmedOnly bool) ([]*Device, error) {
	if !confirmedOnly {
		return c.Store.ListByUser(ctx, userID, false)
	}

	if v, ok := c.cache.Get(confirmedKey(userID)); ok {
		return cloneAll(v.([]*Device)), nil
	}

	devices, err := c.Store.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(confirmedKey(userID), cloneAll(devices))
	return devices, nil
}

func (c *CachedStore) Create(ctx context.Context, d *Device) error {
	if err := c.Store.Create(ctx, d); err != nil {
		return err
	}
	c.cache.Delete(confirmedKey(d.UserID))
	return nil
}

func (c *CachedStore) Update(ctx context.Context, d *Device) error {
	err := c.Store.Update(ctx, d)
	if d != nil {
		c.cache.Delete(confirmedKey(d.UserID))
	}
	return err
}

func (c *CachedStore) Promote(ctx context.Context, d *Device) error {
	err := c.Store.Promote(ctx, d)
	if d != nil {
		c.cache.Delete(confirmedKey(d.UserID))
	}
	return err
}

func cloneAll(in []*Device) []*Device {
	if in == nil {
		return nil
	}
	out := make([]*Device, len(in))
	for i, d := range in {
		out[i] = d.clone()
	}
	return out
}
