package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	b, err := NewSQLite(store.Options{}) // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	s := b.(*Store)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testItem(title string, category model.Category, at time.Time) *model.Content {
	return &model.Content{
		ID:          uuid.NewString(),
		Title:       title,
		Description: title + " description",
		YouTubeURL:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Category:    category,
		Difficulty:  model.DifficultyBeginner,
		CreatedBy:   "admin",
		CreatedAt:   at.UTC(),
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := testItem("Keep me", model.CategoryReading, time.Now())
	require.NoError(t, s.InsertContent(ctx, item))

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin_users", "contents"}, tables)

	items, err := s.ListContent(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestTablesBeforeMigrate(t *testing.T) {
	b, err := NewSQLite(store.Options{})
	require.NoError(t, err)
	defer b.Close()

	tables, err := b.Tables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestAdminCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetAdmin(ctx, "admin")
	require.ErrorIs(t, err, store.ErrNotFound)

	created, err := s.CreateAdminIfAbsent(ctx, &model.Admin{Username: "admin", PasswordHash: "hash-1"})
	require.NoError(t, err)
	assert.True(t, created)

	// A second seed must not overwrite the first.
	created, err = s.CreateAdminIfAbsent(ctx, &model.Admin{Username: "admin", PasswordHash: "hash-2"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetAdmin(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.PasswordHash)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, s.UpdateAdminPassword(ctx, "admin", "hash-3"))
	got, err = s.GetAdmin(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash-3", got.PasswordHash)

	err = s.UpdateAdminPassword(ctx, "nobody", "hash")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetAdminIsExactMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateAdminIfAbsent(ctx, &model.Admin{Username: "admin", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.GetAdmin(ctx, "Admin")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetAdmin(ctx, "admin ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestContentOrderingAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := testItem("first", model.CategoryListening, base)
	second := testItem("second", model.CategorySpeaking, base.Add(time.Second))
	third := testItem("third", model.CategoryListening, base.Add(2*time.Second))
	for _, it := range []*model.Content{first, second, third} {
		require.NoError(t, s.InsertContent(ctx, it))
	}

	all, err := s.ListContent(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(all))

	listening, err := s.ListContentByCategory(ctx, model.CategoryListening)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, first.ID}, ids(listening))

	reading, err := s.ListContentByCategory(ctx, model.CategoryReading)
	require.NoError(t, err)
	assert.NotNil(t, reading)
	assert.Empty(t, reading)
}

func TestContentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 5, 1, 12, 30, 15, 123456000, time.UTC)
	item := testItem("Daily dialogue", model.CategorySpeaking, at)
	item.Difficulty = model.DifficultyAdvanced
	require.NoError(t, s.InsertContent(ctx, item))

	got, err := s.GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, got.Title)
	assert.Equal(t, item.Description, got.Description)
	assert.Equal(t, item.YouTubeURL, got.YouTubeURL)
	assert.Equal(t, model.CategorySpeaking, got.Category)
	assert.Equal(t, model.DifficultyAdvanced, got.Difficulty)
	assert.Equal(t, "admin", got.CreatedBy)
	assert.True(t, at.Equal(got.CreatedAt), "created_at %v, want %v", got.CreatedAt, at)

	_, err = s.GetContent(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testItem("a", model.CategoryReading, time.Now())
	b := testItem("b", model.CategoryReading, time.Now().Add(time.Second))
	require.NoError(t, s.InsertContent(ctx, a))
	require.NoError(t, s.InsertContent(ctx, b))

	require.NoError(t, s.DeleteContent(ctx, a.ID))
	// Deleting again is a no-op.
	require.NoError(t, s.DeleteContent(ctx, a.ID))

	items, err := s.ListContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(items))

	require.NoError(t, s.DeleteAllContent(ctx))
	items, err = s.ListContent(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ListContent(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.GetAdmin(context.Background(), "admin")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestFileBackedSQLite(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := NewSQLite(store.Options{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, b.Migrate(ctx))
	item := testItem("persisted", model.CategoryListening, time.Now())
	require.NoError(t, b.InsertContent(ctx, item))
	require.NoError(t, b.Close())

	b, err = NewSQLite(store.Options{DataDir: dir})
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Migrate(ctx))

	got, err := b.GetContent(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)
}

func TestRegister(t *testing.T) {
	r := store.NewRegistry()
	Register(r)
	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, r.Drivers())

	b, err := r.Open(context.Background(), "sqlite", store.Options{})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "sqlite", b.Name())
}

func TestRelationalBackendsRequireDSN(t *testing.T) {
	_, err := NewPostgres(store.Options{})
	assert.Error(t, err)
	_, err = NewMySQL(store.Options{})
	assert.Error(t, err)
}

func ids(items []model.Content) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
