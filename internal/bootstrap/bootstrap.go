// Package bootstrap prepares a backend for first use: it provisions the
// schema and seeds the default admin when none exists.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

// DevelopmentPassword is the seed password used when no other is supplied.
// It exists for local development only.
const DevelopmentPassword = "admin123"

// ErrSeedPasswordRequired is returned when a seed is needed, none was
// configured, and the development default has been disallowed.
var ErrSeedPasswordRequired = errors.New("seed password required: set auth.seed_password")

// Hasher produces the stored form of a password.
type Hasher interface {
	Hash(password string) (string, error)
}

// Options configure an Initializer.
type Options struct {
	// Username of the seeded admin. Defaults to model.DefaultAdminUsername.
	Username string

	// SeedPassword is hashed and stored when the admin is absent. Empty
	// falls back to DevelopmentPassword unless RequireSeed is set.
	SeedPassword string

	// RequireSeed refuses the development default.
	RequireSeed bool
}

// Result describes what Initialize did.
type Result struct {
	Backend       string
	Tables        []string
	AdminCreated  bool
	UsedDevSecret bool
}

// Initializer runs schema provisioning and the admin seed.
type Initializer struct {
	backend store.Backend
	hasher  Hasher
	opts    Options
	logger  *slog.Logger
}

// New creates an Initializer. A nil logger discards output.
func New(backend store.Backend, hasher Hasher, opts Options, logger *slog.Logger) *Initializer {
	if opts.Username == "" {
		opts.Username = model.DefaultAdminUsername
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Initializer{backend: backend, hasher: hasher, opts: opts, logger: logger}
}

// Initialize creates missing tables and seeds the admin if absent. It may be
// called on every start and concurrently with itself: an existing admin,
// including one whose password has been rotated, is never touched.
func (i *Initializer) Initialize(ctx context.Context) (*Result, error) {
	if err := i.backend.Migrate(ctx); err != nil {
		return nil, oops.Code("BOOTSTRAP_MIGRATE_FAILED").
			With("backend", i.backend.Name()).
			Wrap(err)
	}

	res := &Result{Backend: i.backend.Name()}

	_, err := i.backend.GetAdmin(ctx, i.opts.Username)
	switch {
	case err == nil:
		i.logger.DebugContext(ctx, "admin already present", "username", i.opts.Username)
	case errors.Is(err, store.ErrNotFound):
		created, usedDev, err := i.seed(ctx)
		if err != nil {
			return nil, err
		}
		res.AdminCreated = created
		res.UsedDevSecret = usedDev && created
	default:
		return nil, oops.Code("BOOTSTRAP_SEED_FAILED").
			With("operation", "get admin").
			Wrap(err)
	}

	tables, err := i.backend.Tables(ctx)
	if err != nil {
		return nil, oops.Code("BOOTSTRAP_TABLES_FAILED").Wrap(err)
	}
	res.Tables = tables

	i.logger.InfoContext(ctx, "storage initialized",
		"backend", res.Backend,
		"tables", res.Tables,
		"admin_created", res.AdminCreated,
	)
	return res, nil
}

func (i *Initializer) seed(ctx context.Context) (created, usedDev bool, err error) {
	password := i.opts.SeedPassword
	if password == "" {
		if i.opts.RequireSeed {
			return false, false, ErrSeedPasswordRequired
		}
		password = DevelopmentPassword
		usedDev = true
	}

	hash, err := i.hasher.Hash(password)
	if err != nil {
		return false, false, err
	}

	created, err = i.backend.CreateAdminIfAbsent(ctx, &model.Admin{
		Username:     i.opts.Username,
		PasswordHash: hash,
	})
	if err != nil {
		return false, false, oops.Code("BOOTSTRAP_SEED_FAILED").
			With("operation", "create admin").
			Wrap(err)
	}

	if created {
		if usedDev {
			i.logger.WarnContext(ctx, "seeded admin with the development default password; change it before exposing this instance",
				"username", i.opts.Username)
		} else {
			i.logger.InfoContext(ctx, "seeded admin from configured password", "username", i.opts.Username)
		}
	}
	return created, usedDev, nil
}
