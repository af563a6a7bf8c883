package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// Migrate creates the admin_users and contents tables if they are absent.
// Every statement is "IF NOT EXISTS", so re-running against a populated
// database leaves rows untouched. Concurrent callers on PostgreSQL and MySQL
// serialize on an advisory lock held on a dedicated connection.
func (s *Store) Migrate(ctx context.Context) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return s.unavailable("migrate", err)
	}
	defer conn.Close()

	if err := s.dialect.lock(ctx, conn); err != nil {
		return s.unavailable("migrate lock", err)
	}
	defer s.dialect.unlock(context.WithoutCancel(ctx), conn)

	for i, stmt := range s.dialect.schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return s.unavailable("migrate", fmt.Errorf("statement %d (%s): %w", i+1, summarize(stmt), err))
		}
	}
	return nil
}

// summarize returns the first line of a DDL statement for error messages.
func summarize(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i > 0 {
		stmt = stmt[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(stmt), "(")
}
