package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/englishhub/englishhub/internal/store"
)

// Credentials verifies and rotates admin passwords against a
// store.CredentialStore.
type Credentials struct {
	store  store.CredentialStore
	hasher PasswordHasher
	logger *slog.Logger

	// dummyHash is compared against when the username is unknown so the
	// response time does not reveal whether the account exists.
	dummyHash string
}

// NewCredentials creates a Credentials service. A nil logger discards output.
func NewCredentials(s store.CredentialStore, hasher PasswordHasher, logger *slog.Logger) (*Credentials, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// The dummy is a real hash of random bytes at the same cost, so it can
	// never match and takes as long to reject as a real one.
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return nil, oops.Code("AUTH_DUMMY_HASH_FAILED").Wrap(err)
	}
	dummy, err := hasher.Hash(hex.EncodeToString(secret))
	if err != nil {
		return nil, err
	}

	return &Credentials{store: s, hasher: hasher, logger: logger, dummyHash: dummy}, nil
}

// Verify reports whether password is the current password for username. An
// unknown username and a wrong password both yield (false, nil). A non-nil
// error means the answer is unknown and must be treated as not
// authenticated.
func (c *Credentials) Verify(ctx context.Context, username, password string) (bool, error) {
	admin, err := c.store.GetAdmin(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_, _ = c.hasher.Verify(password, c.dummyHash)
			return false, nil
		}
		return false, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "get admin").
			Wrap(err)
	}

	ok, err := c.hasher.Verify(password, admin.PasswordHash)
	if err != nil {
		c.logger.WarnContext(ctx, "stored admin hash is unreadable", "username", username)
		return false, oops.Code("AUTH_VERIFY_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	return ok, nil
}

// ChangePassword replaces the password for username with next after
// re-verifying current. It returns (false, nil) when current is wrong, in
// which case nothing is written. A next that fails CheckPolicy yields
// ErrWeakPassword before any verification takes place.
func (c *Credentials) ChangePassword(ctx context.Context, username, current, next string) (bool, error) {
	if err := CheckPolicy(next); err != nil {
		return false, err
	}

	ok, err := c.Verify(ctx, username, current)
	if err != nil || !ok {
		return false, err
	}

	hash, err := c.hasher.Hash(next)
	if err != nil {
		return false, err
	}
	if err := c.store.UpdateAdminPassword(ctx, username, hash); err != nil {
		return false, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "update admin password").
			Wrap(err)
	}

	c.logger.InfoContext(ctx, "admin password changed", "username", username)
	return true, nil
}

// Hash hashes password with the configured hasher. It is used when seeding.
func (c *Credentials) Hash(password string) (string, error) {
	return c.hasher.Hash(password)
}
