package content

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
	"github.com/englishhub/englishhub/internal/store/localstore"
	"github.com/englishhub/englishhub/internal/store/sqlstore"
)

// fakeClock returns base, base+1s, base+2s, ...
type fakeClock struct {
	mu   sync.Mutex
	next time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{next: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}

// backends returns one migrated instance of every backend.
func backends(t *testing.T) map[string]store.Backend {
	t.Helper()
	ctx := context.Background()

	sq, err := sqlstore.NewSQLite(store.Options{})
	require.NoError(t, err)
	local, err := localstore.New(store.Options{DataDir: t.TempDir()})
	require.NoError(t, err)

	out := map[string]store.Backend{"sqlite": sq, "local": local}
	for _, b := range out {
		require.NoError(t, b.Migrate(ctx))
		t.Cleanup(func() { b.Close() })
	}
	return out
}

func lesson(title string, c model.Category) model.NewContent {
	return model.NewContent{
		Title:       title,
		Description: "A short lesson",
		YouTubeURL:  "https://www.youtube.com/watch?v=abc123",
		Category:    c,
		Difficulty:  model.DifficultyBeginner,
		CreatedBy:   "admin",
	}
}

func TestRepository(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRepository(b, WithClock(newFakeClock().Now))

			t.Run("insert assigns id and time", func(t *testing.T) {
				got, err := repo.Insert(ctx, lesson("Podcast", model.CategoryListening))
				require.NoError(t, err)
				_, err = uuid.Parse(got.ID)
				assert.NoError(t, err)
				assert.False(t, got.CreatedAt.IsZero())
				assert.Equal(t, "Podcast", got.Title)

				all, err := repo.List(ctx)
				require.NoError(t, err)
				require.Len(t, all, 1)
				assert.Equal(t, got.ID, all[0].ID)
				assert.True(t, got.CreatedAt.Equal(all[0].CreatedAt))

				fetched, err := repo.Get(ctx, got.ID)
				require.NoError(t, err)
				assert.Equal(t, got.Title, fetched.Title)

				require.NoError(t, repo.DeleteAll(ctx))
			})

			t.Run("category scenario", func(t *testing.T) {
				first, err := repo.Insert(ctx, lesson("one", model.CategoryListening))
				require.NoError(t, err)
				second, err := repo.Insert(ctx, lesson("two", model.CategorySpeaking))
				require.NoError(t, err)
				third, err := repo.Insert(ctx, lesson("three", model.CategoryListening))
				require.NoError(t, err)

				listening, err := repo.ListByCategory(ctx, model.CategoryListening)
				require.NoError(t, err)
				require.Len(t, listening, 2)
				assert.Equal(t, third.ID, listening[0].ID)
				assert.Equal(t, first.ID, listening[1].ID)

				all, err := repo.List(ctx)
				require.NoError(t, err)
				require.Len(t, all, 3)
				assert.Equal(t, []string{third.ID, second.ID, first.ID},
					[]string{all[0].ID, all[1].ID, all[2].ID})

				require.NoError(t, repo.DeleteAll(ctx))
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				a, err := repo.Insert(ctx, lesson("a", model.CategoryReading))
				require.NoError(t, err)
				b, err := repo.Insert(ctx, lesson("b", model.CategoryReading))
				require.NoError(t, err)

				require.NoError(t, repo.Delete(ctx, a.ID))
				require.NoError(t, repo.Delete(ctx, a.ID))
				require.NoError(t, repo.Delete(ctx, "not-a-uuid"))

				all, err := repo.List(ctx)
				require.NoError(t, err)
				require.Len(t, all, 1)
				assert.Equal(t, b.ID, all[0].ID)

				_, err = repo.Get(ctx, a.ID)
				assert.ErrorIs(t, err, store.ErrNotFound)
				_, err = repo.Get(ctx, "not-a-uuid")
				assert.ErrorIs(t, err, store.ErrNotFound)

				require.NoError(t, repo.DeleteAll(ctx))
				all, err = repo.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, all)
			})
		})
	}
}

func TestInsertValidation(t *testing.T) {
	repo := NewRepository(backends(t)["sqlite"])
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.NewContent)
	}{
		{"empty title", func(n *model.NewContent) { n.Title = "  " }},
		{"empty description", func(n *model.NewContent) { n.Description = "" }},
		{"empty url", func(n *model.NewContent) { n.YouTubeURL = "" }},
		{"bad category", func(n *model.NewContent) { n.Category = "writing" }},
		{"bad difficulty", func(n *model.NewContent) { n.Difficulty = "expert" }},
		{"missing author", func(n *model.NewContent) { n.CreatedBy = "" }},
		{"long title", func(n *model.NewContent) { n.Title = strings.Repeat("t", model.MaxTitleLength+1) }},
		{"long description", func(n *model.NewContent) { n.Description = strings.Repeat("d", model.MaxDescriptionBytes+1) }},
		{"long url", func(n *model.NewContent) { n.YouTubeURL = "https://youtu.be/" + strings.Repeat("u", model.MaxURLLength) }},
		{"long author", func(n *model.NewContent) { n.CreatedBy = strings.Repeat("a", model.MaxCreatedByLength+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := lesson("x", model.CategoryReading)
			tt.mutate(&in)
			_, err := repo.Insert(ctx, in)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected input must not be persisted")
}

func TestInsertNormalizes(t *testing.T) {
	repo := NewRepository(backends(t)["sqlite"])
	in := lesson("  Padded  ", "Reading ")
	in.Difficulty = "ADVANCED"

	got, err := repo.Insert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Padded", got.Title)
	assert.Equal(t, model.CategoryReading, got.Category)
	assert.Equal(t, model.DifficultyAdvanced, got.Difficulty)
}

func TestListByUnknownCategory(t *testing.T) {
	repo := NewRepository(backends(t)["sqlite"])
	_, err := repo.ListByCategory(context.Background(), "writing")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

// brokenStore fails every operation as if the database were down.
type brokenStore struct{ store.ContentStore }

var errDown = store.Unavailable("fake", "op", errors.New("connection reset"))

func (brokenStore) ListContent(context.Context) ([]model.Content, error) { return nil, errDown }
func (brokenStore) InsertContent(context.Context, *model.Content) error  { return errDown }
func (brokenStore) DeleteContent(context.Context, string) error          { return errDown }

func TestStorageFaultsPropagate(t *testing.T) {
	repo := NewRepository(brokenStore{})
	ctx := context.Background()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = repo.Insert(ctx, lesson("x", model.CategoryReading))
	assert.ErrorIs(t, err, store.ErrUnavailable)

	err = repo.Delete(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestInsertsWithinOneTickStayNewestFirst(t *testing.T) {
	frozen := time.Date(2024, 4, 1, 9, 0, 0, 123456789, time.UTC)
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRepository(b, WithClock(func() time.Time { return frozen }))

			var ids []string
			for _, title := range []string{"first", "second", "third", "fourth"} {
				got, err := repo.Insert(ctx, lesson(title, model.CategoryListening))
				require.NoError(t, err)
				ids = append(ids, got.ID)
			}

			all, err := repo.ListByCategory(ctx, model.CategoryListening)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, []string{"fourth", "third", "second", "first"}, titles(all))
			assert.Equal(t, ids[3], all[0].ID)
			for i := 1; i < len(all); i++ {
				assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt))
			}
			assert.Equal(t, frozen.Truncate(time.Microsecond), all[3].CreatedAt.UTC())
		})
	}
}

func TestStampSurvivesClockStepBack(t *testing.T) {
	base := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(-time.Hour), base.Add(time.Second)}
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		next := times[0]
		times = times[1:]
		return next
	}
	repo := NewRepository(backends(t)["sqlite"], WithClock(clock))

	a := repo.stamp()
	b := repo.stamp()
	c := repo.stamp()
	assert.Equal(t, base, a)
	assert.Equal(t, base.Add(time.Microsecond), b)
	assert.Equal(t, base.Add(time.Second), c)
}

func titles(items []model.Content) []string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.Title
	}
	return out
}
