package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
	"github.com/englishhub/englishhub/internal/store/sqlstore"
)

func newTestCredentials(t *testing.T) (*Credentials, store.Backend) {
	t.Helper()
	b, err := sqlstore.NewSQLite(store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	require.NoError(t, b.Migrate(context.Background()))

	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	creds, err := NewCredentials(b, hasher, nil)
	require.NoError(t, err)
	return creds, b
}

func seed(t *testing.T, c *Credentials, b store.Backend, username, password string) {
	t.Helper()
	hash, err := c.Hash(password)
	require.NoError(t, err)
	_, err = b.CreateAdminIfAbsent(context.Background(), &model.Admin{Username: username, PasswordHash: hash})
	require.NoError(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h, err := NewBcryptHasher(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, h.Cost())

	hash, err := h.Hash("admin123")
	require.NoError(t, err)
	assert.NotContains(t, hash, "admin123")

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	ok, err := h.Verify("admin123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("admin124", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("admin123", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestBcryptHasherRejectsBadCost(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
	_, err = NewBcryptHasher(1)
	assert.Error(t, err)
}

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "abcde", true},
		{"minimum", "abcdef", false},
		{"multibyte counts runes", "pässwö", false},
		{"max bytes", strings.Repeat("a", 72), false},
		{"over max bytes", strings.Repeat("a", 73), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPolicy(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
				assert.ErrorIs(t, err, model.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	c, b := newTestCredentials(t)
	ctx := context.Background()
	seed(t, c, b, "admin", "admin123")

	ok, err := c.Verify(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, pw := range []string{"", "admin", "admin1234", "ADMIN123"} {
		ok, err := c.Verify(ctx, "admin", pw)
		require.NoError(t, err)
		assert.False(t, ok, "password %q", pw)
	}

	// Unknown user is indistinguishable from a wrong password.
	ok, err = c.Verify(ctx, "root", "admin123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangePassword(t *testing.T) {
	c, b := newTestCredentials(t)
	ctx := context.Background()
	seed(t, c, b, "admin", "admin123")

	before, err := b.GetAdmin(ctx, "admin")
	require.NoError(t, err)

	t.Run("wrong current password leaves hash", func(t *testing.T) {
		ok, err := c.ChangePassword(ctx, "admin", "wrong", "newpass1")
		require.NoError(t, err)
		assert.False(t, ok)

		after, err := b.GetAdmin(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("weak new password rejected", func(t *testing.T) {
		ok, err := c.ChangePassword(ctx, "admin", "admin123", "123")
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrWeakPassword)

		after, err := b.GetAdmin(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, before.PasswordHash, after.PasswordHash)
	})

	t.Run("success rotates", func(t *testing.T) {
		ok, err := c.ChangePassword(ctx, "admin", "admin123", "newpass1")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = c.Verify(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.Verify(ctx, "admin", "newpass1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown user", func(t *testing.T) {
		ok, err := c.ChangePassword(ctx, "ghost", "admin123", "newpass1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// failingStore reports every lookup as a storage fault.
type failingStore struct{ store.CredentialStore }

func (failingStore) GetAdmin(context.Context, string) (*model.Admin, error) {
	return nil, store.Unavailable("fake", "get admin", errors.New("connection refused"))
}

func TestVerifyStorageFault(t *testing.T) {
	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	c, err := NewCredentials(failingStore{}, hasher, nil)
	require.NoError(t, err)

	ok, err := c.Verify(context.Background(), "admin", "admin123")
	assert.False(t, ok)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	ok, err = c.ChangePassword(context.Background(), "admin", "admin123", "newpass1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestCorruptStoredHash(t *testing.T) {
	c, b := newTestCredentials(t)
	ctx := context.Background()
	_, err := b.CreateAdminIfAbsent(ctx, &model.Admin{Username: "admin", PasswordHash: "garbage"})
	require.NoError(t, err)

	ok, err := c.Verify(ctx, "admin", "admin123")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidHash)
}
