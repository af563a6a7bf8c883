// Package store defines the persistence contract shared by every englishhub
// backend. A Backend holds both the admin credential and the content
// catalog; concrete implementations live in the sqlstore and localstore
// subpackages and are selected by name through a Registry.
package store

import (
	"context"

	"github.com/englishhub/englishhub/internal/model"
)

// CredentialStore persists the admin identity.
type CredentialStore interface {
	// GetAdmin returns the admin with the exact username, or ErrNotFound.
	GetAdmin(ctx context.Context, username string) (*model.Admin, error)

	// CreateAdminIfAbsent inserts admin unless a record with the same
	// username already exists. It reports whether a row was written and is
	// safe to race against itself.
	CreateAdminIfAbsent(ctx context.Context, admin *model.Admin) (bool, error)

	// UpdateAdminPassword replaces the stored hash for username. Returns
	// ErrNotFound if no such admin exists.
	UpdateAdminPassword(ctx context.Context, username, passwordHash string) error
}

// ContentStore persists catalog items. List methods return items ordered by
// CreatedAt descending.
type ContentStore interface {
	ListContent(ctx context.Context) ([]model.Content, error)
	ListContentByCategory(ctx context.Context, category model.Category) ([]model.Content, error)

	// GetContent returns the item with id, or ErrNotFound.
	GetContent(ctx context.Context, id string) (*model.Content, error)

	// InsertContent stores a fully populated item (ID and CreatedAt set).
	InsertContent(ctx context.Context, item *model.Content) error

	// DeleteContent removes the item with id. Deleting a missing id is not
	// an error.
	DeleteContent(ctx context.Context, id string) error

	// DeleteAllContent removes every item.
	DeleteAllContent(ctx context.Context) error
}

// Backend is a complete storage backend.
type Backend interface {
	CredentialStore
	ContentStore

	// Migrate provisions the schema if it does not exist. It never drops or
	// rewrites existing data and may be called any number of times.
	Migrate(ctx context.Context) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Tables lists the englishhub collections currently present.
	Tables(ctx context.Context) ([]string, error)

	// Name returns the backend driver name (sqlite, postgres, mysql, local).
	Name() string

	Close() error
}
