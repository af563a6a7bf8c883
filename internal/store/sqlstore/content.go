package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

const contentColumns = "id, title, description, youtube_url, category, difficulty, created_by, created_at"

// ListContent returns every item, newest first.
func (s *Store) ListContent(ctx context.Context) ([]model.Content, error) {
	items := []model.Content{}
	q := "SELECT " + contentColumns + " FROM contents ORDER BY created_at DESC, id"
	if err := s.db.SelectContext(ctx, &items, q); err != nil {
		return nil, s.unavailable("list content", err)
	}
	return items, nil
}

// ListContentByCategory returns the items in category, newest first.
func (s *Store) ListContentByCategory(ctx context.Context, category model.Category) ([]model.Content, error) {
	items := []model.Content{}
	q := s.db.Rebind("SELECT " + contentColumns + " FROM contents WHERE category = ? ORDER BY created_at DESC, id")
	if err := s.db.SelectContext(ctx, &items, q, string(category)); err != nil {
		return nil, s.unavailable("list content by category", err)
	}
	return items, nil
}

// GetContent returns the item with id.
func (s *Store) GetContent(ctx context.Context, id string) (*model.Content, error) {
	var item model.Content
	q := s.db.Rebind("SELECT " + contentColumns + " FROM contents WHERE id = ?")
	if err := s.db.GetContext(ctx, &item, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("content", id)
		}
		return nil, s.unavailable("get content", err)
	}
	return &item, nil
}

// InsertContent stores item as a single INSERT.
func (s *Store) InsertContent(ctx context.Context, item *model.Content) error {
	const q = `INSERT INTO contents
		(id, title, description, youtube_url, category, difficulty, created_by, created_at)
		VALUES
		(:id, :title, :description, :youtube_url, :category, :difficulty, :created_by, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, item); err != nil {
		return s.unavailable("insert content", err)
	}
	return nil
}

// DeleteContent removes the item with id, if present.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	q := s.db.Rebind("DELETE FROM contents WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return s.unavailable("delete content", err)
	}
	return nil
}

// DeleteAllContent empties the contents table.
func (s *Store) DeleteAllContent(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM contents"); err != nil {
		return s.unavailable("delete all content", err)
	}
	return nil
}
