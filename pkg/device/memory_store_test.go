package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlex/settlex/pkg/device"
)

func newDevice(userID uuid.UUID) *device.Device {
	return &device.Device{
		ID:          uuid.New(),
		UserID:      userID,
		Key:         "3132333435363738393031323334353637383930",
		Period:      30 * time.Second,
		Digits:      6,
		Drift:       1,
		LastCounter: -1,
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("returns copies", func(t *testing.T) {
		store := device.NewMemoryStore()
		d := newDevice(uuid.New())
		require.NoError(t, store.Create(ctx, d))

		d.Name = "mutated"
		got, err := store.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Name)

		got.Name = "again"
		again, err := store.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Name)
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		store := device.NewMemoryStore()
		d := newDevice(uuid.New())
		require.NoError(t, store.Create(ctx, d))
		assert.ErrorIs(t, store.Create(ctx, d), device.ErrInvalidDevice)
	})

	t.Run("key is immutable", func(t *testing.T) {
		store := device.NewMemoryStore()
		d := newDevice(uuid.New())
		require.NoError(t, store.Create(ctx, d))

		changed := *d
		changed.Key = "00"
		assert.ErrorIs(t, store.Update(ctx, &changed), device.ErrKeyImmutable)
	})

	t.Run("update unknown device", func(t *testing.T) {
		store := device.NewMemoryStore()
		assert.ErrorIs(t, store.Update(ctx, newDevice(uuid.New())), device.ErrNotFound)
	})

	t.Run("list keeps creation order and filters", func(t *testing.T) {
		store := device.NewMemoryStore()
		userID := uuid.New()
		a, b, c := newDevice(userID), newDevice(userID), newDevice(uuid.New())
		b.Confirmed = true
		for _, d := range []*device.Device{a, b, c} {
			require.NoError(t, store.Create(ctx, d))
		}

		all, err := store.ListByUser(ctx, userID, false)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, a.ID, all[0].ID)
		assert.Equal(t, b.ID, all[1].ID)

		confirmed, err := store.ListByUser(ctx, userID, true)
		require.NoError(t, err)
		require.Len(t, confirmed, 1)
		assert.Equal(t, b.ID, confirmed[0].ID)
	})

	t.Run("promote renames others of the same user", func(t *testing.T) {
		store := device.NewMemoryStore()
		userID := uuid.New()
		a, b, foreign := newDevice(userID), newDevice(userID), newDevice(uuid.New())
		a.Name, foreign.Name = device.DefaultName, device.DefaultName
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))
		require.NoError(t, store.Create(ctx, foreign))

		b.Name, b.Confirmed = device.DefaultName, true
		require.NoError(t, store.Promote(ctx, b))

		gotA, _ := store.GetByID(ctx, a.ID)
		gotB, _ := store.GetByID(ctx, b.ID)
		gotForeign, _ := store.GetByID(ctx, foreign.ID)
		assert.Empty(t, gotA.Name)
		assert.Equal(t, device.DefaultName, gotB.Name)
		assert.True(t, gotB.Confirmed)
		assert.Equal(t, device.DefaultName, gotForeign.Name)
	})

	t.Run("rejected promote changes nothing", func(t *testing.T) {
		store := device.NewMemoryStore()
		userID := uuid.New()
		a, b := newDevice(userID), newDevice(userID)
		a.Name = device.DefaultName
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.Create(ctx, b))

		b.Name, b.Key = device.DefaultName, "00"
		assert.ErrorIs(t, store.Promote(ctx, b), device.ErrKeyImmutable)

		missing := newDevice(userID)
		missing.Name = device.DefaultName
		assert.ErrorIs(t, store.Promote(ctx, missing), device.ErrNotFound)

		gotA, _ := store.GetByID(ctx, a.ID)
		assert.Equal(t, device.DefaultName, gotA.Name)
	})
}
