package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/englishhub/englishhub/internal/model"
	"github.com/englishhub/englishhub/internal/store"
)

// GetAdmin returns the admin with the given username.
func (s *Store) GetAdmin(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	q := s.db.Rebind("SELECT id, username, password, created_at FROM admin_users WHERE username = ?")
	if err := s.db.GetContext(ctx, &admin, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound("admin", username)
		}
		return nil, s.unavailable("get admin", err)
	}
	return &admin, nil
}

// CreateAdminIfAbsent inserts admin unless the username is taken. Missing ID
// and CreatedAt fields are filled in before the insert.
func (s *Store) CreateAdminIfAbsent(ctx context.Context, admin *model.Admin) (bool, error) {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	result, err := s.db.NamedExecContext(ctx, s.dialect.insertAdminIfAbsent, admin)
	if err != nil {
		return false, s.unavailable("create admin", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, s.unavailable("create admin rows affected", err)
	}
	return n > 0, nil
}

// UpdateAdminPassword replaces the stored hash for username.
func (s *Store) UpdateAdminPassword(ctx context.Context, username, passwordHash string) error {
	q := s.db.Rebind("UPDATE admin_users SET password = ? WHERE username = ?")
	result, err := s.db.ExecContext(ctx, q, passwordHash, username)
	if err != nil {
		return s.unavailable("update admin password", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return s.unavailable("update admin password rows affected", err)
	}
	if n == 0 {
		return store.NotFound("admin", username)
	}
	return nil
}
