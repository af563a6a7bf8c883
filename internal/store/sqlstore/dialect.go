package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrateLockKey identifies the englishhub schema lock on engines that
// support advisory locks.
const (
	migrateLockKey  int64 = 0x656e676c697368 // "english"
	migrateLockName       = "englishhub_migrate"
)

// dialect captures the per-engine SQL that cannot be written portably.
// Everything else is plain SQL with "?" placeholders rebound by sqlx.
type dialect struct {
	name   string // backend name reported by Store.Name
	driver string // database/sql driver name

	schema []string

	// insertAdminIfAbsent must leave an existing row for the same username
	// untouched and report zero affected rows in that case.
	insertAdminIfAbsent string

	tablesQuery string

	lock   func(ctx context.Context, conn *sqlx.Conn) error
	unlock func(ctx context.Context, conn *sqlx.Conn) error
}

func noLock(context.Context, *sqlx.Conn) error { return nil }

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS admin_users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS contents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			youtube_url TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_by TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contents_category_created ON contents(category, created_at)`,
	},
	insertAdminIfAbsent: `INSERT INTO admin_users (id, username, password, created_at)
		VALUES (:id, :username, :password, :created_at)
		ON CONFLICT (username) DO NOTHING`,
	tablesQuery: `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name IN ('admin_users', 'contents')
		ORDER BY name`,
	// A single connection serializes every statement already.
	lock:   noLock,
	unlock: noLock,
}

var postgresDialect = dialect{
	name:   "postgres",
	driver: "pgx",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS admin_users (
			id UUID PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS contents (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			youtube_url VARCHAR(2048) NOT NULL,
			category VARCHAR(32) NOT NULL,
			difficulty VARCHAR(32) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_by VARCHAR(255) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contents_category_created ON contents (category, created_at DESC)`,
	},
	insertAdminIfAbsent: `INSERT INTO admin_users (id, username, password, created_at)
		VALUES (:id, :username, :password, :created_at)
		ON CONFLICT (username) DO NOTHING`,
	tablesQuery: `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name IN ('admin_users', 'contents')
		ORDER BY table_name`,
	lock: func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrateLockKey)
		return err
	},
	unlock: func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", migrateLockKey)
		return err
	},
}

var mysqlDialect = dialect{
	name:   "mysql",
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS admin_users (
			id CHAR(36) PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
		)`,
		// MySQL has no CREATE INDEX IF NOT EXISTS, so the index is inline.
		`CREATE TABLE IF NOT EXISTS contents (
			id CHAR(36) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			youtube_url VARCHAR(2048) NOT NULL,
			category VARCHAR(32) NOT NULL,
			difficulty VARCHAR(32) NOT NULL,
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			created_by VARCHAR(255) NOT NULL,
			INDEX idx_contents_category_created (category, created_at)
		)`,
	},
	insertAdminIfAbsent: `INSERT IGNORE INTO admin_users (id, username, password, created_at)
		VALUES (:id, :username, :password, :created_at)`,
	tablesQuery: `SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name IN ('admin_users', 'contents')
		ORDER BY table_name`,
	lock: func(ctx context.Context, conn *sqlx.Conn) error {
		var got int
		if err := conn.GetContext(ctx, &got, "SELECT GET_LOCK(?, 30)", migrateLockName); err != nil {
			return err
		}
		if got != 1 {
			return fmt.Errorf("timed out waiting for lock %q", migrateLockName)
		}
		return nil
	},
	unlock: func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", migrateLockName)
		return err
	},
}
