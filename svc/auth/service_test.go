package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/settlex/settlex/svc/auth"
)

func newService(t *testing.T) (*auth.Service, *auth.MemoryStore) {
	t.Helper()
	store := auth.NewMemoryStore()
	return auth.NewService(store, auth.WithBcryptCost(bcrypt.MinCost)), store
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	svc, store := newService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, auth.CreateUserParams{Email: "  Jane@Example.com ", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.False(t, u.Privileged())
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	stored, err := store.GetByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)

	_, err = svc.CreateUser(ctx, auth.CreateUserParams{Email: "jane@example.com", Password: "x"})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)

	_, err = svc.CreateUser(ctx, auth.CreateUserParams{Email: "", Password: "x"})
	assert.ErrorIs(t, err, auth.ErrInvalidUser)

	_, err = svc.CreateUser(ctx, auth.CreateUserParams{Email: "bob@example.com"})
	assert.ErrorIs(t, err, auth.ErrPasswordRequired)

	admin, err := svc.CreateUser(ctx, auth.CreateUserParams{Email: "root@example.com", Password: "x", IsSuperuser: true})
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)
	assert.True(t, admin.Privileged())
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	svc, store := newService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, auth.CreateUserParams{Email: "jane@example.com", Password: "s3cret"})
	require.NoError(t, err)

	inactiveHash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &auth.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: string(inactiveHash),
	}))

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "Jane@example.com", password: "s3cret"},
		{name: "wrong password", email: "jane@example.com", password: "nope", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown user", email: "who@example.com", password: "s3cret", wantErr: auth.ErrInvalidCredentials},
		{name: "inactive user", email: "gone@example.com", password: "pw", wantErr: auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := svc.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
		})
	}
}

func TestPrivileged(t *testing.T) {
	t.Parallel()

	var nilUser *auth.User
	assert.False(t, nilUser.Privileged())
	assert.True(t, (&auth.User{IsStaff: true}).Privileged())
	assert.True(t, (&auth.User{IsSuperuser: true}).Privileged())
	assert.False(t, (&auth.User{}).Privileged())
}
