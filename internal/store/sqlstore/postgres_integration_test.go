//go:build integration

package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

// newPostgresStore starts a PostgreSQL container and returns a migrated store.
func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("englishhub_test"),
		postgres.WithUsername("englishhub"),
		postgres.WithPassword("englishhub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	r := store.NewRegistry()
	Register(r)
	b, err := r.Open(ctx, "postgres", store.Options{DSN: connStr, ConnectTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	require.NoError(t, b.Migrate(ctx))
	return b.(*Store)
}

func TestPostgresBackend(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	t.Run("concurrent migrations", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.Migrate(ctx)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}

		tables, err := s.Tables(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"admin_users", "contents"}, tables)
	})

	t.Run("admin seed and rotate", func(t *testing.T) {
		created, err := s.CreateAdminIfAbsent(ctx, &model.Admin{Username: "admin", PasswordHash: "h1"})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.CreateAdminIfAbsent(ctx, &model.Admin{Username: "admin", PasswordHash: "h2"})
		require.NoError(t, err)
		assert.False(t, created)

		require.NoError(t, s.UpdateAdminPassword(ctx, "admin", "h3"))
		got, err := s.GetAdmin(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, "h3", got.PasswordHash)
	})

	t.Run("content newest first", func(t *testing.T) {
		base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
		a := testItem("a", model.CategoryListening, base)
		b := testItem("b", model.CategorySpeaking, base.Add(time.Minute))
		c := testItem("c", model.CategoryListening, base.Add(2*time.Minute))
		for _, it := range []*model.Content{a, b, c} {
			require.NoError(t, s.InsertContent(ctx, it))
		}

		listening, err := s.ListContentByCategory(ctx, model.CategoryListening)
		require.NoError(t, err)
		assert.Equal(t, []string{c.ID, a.ID}, ids(listening))

		got, err := s.GetContent(ctx, b.ID)
		require.NoError(t, err)
		assert.True(t, b.CreatedAt.Equal(got.CreatedAt))

		require.NoError(t, s.DeleteAllContent(ctx))
		all, err := s.ListContent(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
