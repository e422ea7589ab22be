package device_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/settlex/settlex/pkg/device"
	"github.com/settlex/settlex/pkg/totp"
)

var testSecret = []byte("12345678901234567890")

func newService(t *testing.T, at time.Time) (*device.Service, *device.MemoryStore) {
	t.Helper()
	store := device.NewMemoryStore()
	svc := device.NewService(store, device.WithClock(func() time.Time { return at }))
	return svc, store
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, time.Unix(59, 0))
	ctx := context.Background()
	userID := uuid.New()

	t.Run("applies defaults", func(t *testing.T) {
		d, err := svc.Create(ctx, userID, testSecret, 0)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, d.ID)
		assert.Equal(t, userID, d.UserID)
		assert.Equal(t, "3132333435363738393031323334353637383930", d.Key)
		assert.Equal(t, 30*time.Second, d.Period)
		assert.Equal(t, 6, d.Digits)
		assert.Equal(t, 1, d.Drift)
		assert.False(t, d.Confirmed)
		assert.Empty(t, d.Name)
		assert.Equal(t, int64(-1), d.LastCounter)

		stored, err := store.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d, stored)
	})

	t.Run("custom digits", func(t *testing.T) {
		d, err := svc.Create(ctx, userID, testSecret, 8)
		require.NoError(t, err)
		assert.Equal(t, 8, d.Digits)
	})

	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := svc.Create(ctx, userID, nil, 6)
		assert.ErrorIs(t, err, device.ErrInvalidDevice)
	})

	t.Run("rejects nil user", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.Nil, testSecret, 6)
		assert.ErrorIs(t, err, device.ErrInvalidDevice)
	})
}

func TestServiceGet(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, time.Now())
	ctx := context.Background()
	owner := uuid.New()

	d, err := svc.Create(ctx, owner, testSecret, 6)
	require.NoError(t, err)

	got, err := svc.Get(ctx, d.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = svc.Get(ctx, d.ID, uuid.New())
	assert.ErrorIs(t, err, device.ErrNotFound)

	_, err = svc.Get(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, device.ErrNotFound)
}

func TestServiceConfirm(t *testing.T) {
	t.Parallel()

	svc, store := newService(t, time.Now())
	ctx := context.Background()
	userID := uuid.New()
	otherUser := uuid.New()

	first, err := svc.Create(ctx, userID, testSecret, 6)
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, testSecret, 6)
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, otherUser, testSecret, 6)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, foreign)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, first)
	require.NoError(t, err)
	assert.True(t, confirmed.IsDefault())
	assert.Equal(t, first.Key, confirmed.Key)

	def, err := svc.DefaultDevice(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	_, err = svc.Confirm(ctx, second)
	require.NoError(t, err)

	def, err = svc.DefaultDevice(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	devices, err := store.ListByUser(ctx, userID, true)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	named := 0
	for _, d := range devices {
		if d.Name == device.DefaultName {
			named++
		}
	}
	assert.Equal(t, 1, named)

	otherDefault, err := svc.DefaultDevice(ctx, otherUser)
	require.NoError(t, err)
	assert.Equal(t, foreign.ID, otherDefault.ID)
}

type failingPromoteStore struct {
	*device.MemoryStore
}

func (failingPromoteStore) Promote(context.Context, *device.Device) error {
	return errors.New("connection reset")
}

func TestServiceConfirmFailureKeepsDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	userID := uuid.New()
	mem := device.NewMemoryStore()

	svc := device.NewService(mem)
	first, err := svc.Create(ctx, userID, testSecret, 6)
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, testSecret, 6)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, first)
	require.NoError(t, err)

	broken := device.NewService(failingPromoteStore{mem})
	_, err = broken.Confirm(ctx, second)
	require.ErrorIs(t, err, device.ErrFailedToUpdate)

	def, err := svc.DefaultDevice(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	got, err := mem.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, got.Confirmed)
}

func TestServiceDefaultDevice(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, time.Now())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.DefaultDevice(ctx, userID)
	assert.ErrorIs(t, err, device.ErrNotFound)

	_, err = svc.Create(ctx, userID, testSecret, 6)
	require.NoError(t, err)

	_, err = svc.DefaultDevice(ctx, userID)
	assert.ErrorIs(t, err, device.ErrNotFound)

	ok, err := svc.HasConfirmed(ctx, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceVerify(t *testing.T) {
	t.Parallel()

	at := time.Unix(1111111109, 0)
	svc, store := newService(t, at)
	ctx := context.Background()

	d, err := svc.Create(ctx, uuid.New(), testSecret, 6)
	require.NoError(t, err)

	token, err := totp.Generate(testSecret, d.Params(), at)
	require.NoError(t, err)

	require.Equal(t, "081804", token)

	ok, err := svc.Verify(ctx, d, "000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(-1), d.LastCounter)

	ok, err = svc.Verify(ctx, d, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, totp.Counter(d.Params(), at), d.LastCounter)

	stored, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.LastCounter, stored.LastCounter)

	ok, err = svc.Verify(ctx, d, token)
	assert.ErrorIs(t, err, device.ErrTokenReplayed)
	assert.False(t, ok)
}

func TestServiceVerifyMalformedKey(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, time.Now())
	_, err := svc.Verify(context.Background(), &device.Device{Key: "zz"}, "123456")
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
}
