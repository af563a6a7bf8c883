// Package content implements the catalog repository: validated inserts,
// category-scoped reads ordered newest first, single and bulk deletes.
package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

// Repository is the catalog's entry point. Each call is one round trip to the
// backing store; nothing is cached.
type Repository struct {
	store store.ContentStore
	now   func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the timestamp source used on insert.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository creates a Repository over s.
func NewRepository(s store.ContentStore, opts ...Option) *Repository {
	r := &Repository{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns every item, newest first.
func (r *Repository) List(ctx context.Context) ([]model.Content, error) {
	return r.store.ListContent(ctx)
}

// ListByCategory returns the items in category, newest first. An unknown
// category fails with model.ErrInvalidInput.
func (r *Repository) ListByCategory(ctx context.Context, category model.Category) ([]model.Content, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", model.ErrInvalidInput, category)
	}
	return r.store.ListContentByCategory(ctx, category)
}

// Get returns the item with id or store.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (*model.Content, error) {
	if !validID(id) {
		return nil, store.NotFound("content", id)
	}
	return r.store.GetContent(ctx, id)
}

// Insert validates in, assigns an id and creation time, persists it and
// returns the stored record.
func (r *Repository) Insert(ctx context.Context, in model.NewContent) (*model.Content, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	item := &model.Content{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		YouTubeURL:  in.YouTubeURL,
		Category:    in.Category,
		Difficulty:  in.Difficulty,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   r.stamp(),
	}
	if err := r.store.InsertContent(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the item with id. A missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	return r.store.DeleteContent(ctx, id)
}

// DeleteAll removes every item.
func (r *Repository) DeleteAll(ctx context.Context) error {
	return r.store.DeleteAllContent(ctx)
}

// stamp returns the creation time for a new item. Microsecond precision in
// UTC survives every backend unchanged. Stamps from one Repository strictly
// increase, so items inserted within the same microsecond, or across a
// backwards clock step, still list newest first.
func (r *Repository) stamp() time.Time {
	t := r.now().UTC().Truncate(time.Microsecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t
	return t
}

// validID reports whether id could have been issued by Insert. Anything else
// cannot exist, and some engines reject it as a UUID literal.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
