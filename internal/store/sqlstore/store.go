// Package sqlstore implements store.Backend on top of database/sql through
// sqlx. One Store type serves SQLite, PostgreSQL and MySQL; the differences
// are confined to the dialect table.
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/englishhub/englishhub/internal/store"
)

// Store is a relational store.Backend.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

var _ store.Backend = (*Store)(nil)

// Register adds the relational backends to r under the names sqlite,
// postgres and mysql.
func Register(r *store.Registry) {
	r.RegisterDriver(sqliteDialect.name, NewSQLite)
	r.RegisterDriver(postgresDialect.name, NewPostgres)
	r.RegisterDriver(mysqlDialect.name, NewMySQL)
}

// NewSQLite opens a SQLite database. An explicit DSN wins; otherwise the file
// englishhub.db in opts.DataDir is used, and with neither set the database is
// in-memory.
func NewSQLite(opts store.Options) (store.Backend, error) {
	dsn := opts.DSN
	if dsn == "" {
		if opts.DataDir == "" {
			dsn = ":memory:"
		} else {
			if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(opts.DataDir, "englishhub.db") +
				"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	}

	db, err := sqlx.Open(sqliteDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// SQLite doesn't support concurrent writes, and every connection to
	// ":memory:" would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	return &Store{db: db, dialect: sqliteDialect}, nil
}

// NewPostgres opens a PostgreSQL pool through the pgx stdlib driver.
func NewPostgres(opts store.Options) (store.Backend, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	db, err := sqlx.Open(postgresDialect.driver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	configurePool(db, opts)
	return &Store{db: db, dialect: postgresDialect}, nil
}

// NewMySQL opens a MySQL pool. The DSN is rewritten so DATETIME columns scan
// into time.Time in UTC and UPDATE reports matched rather than changed rows.
func NewMySQL(opts store.Options) (store.Backend, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("mysql: dsn is required")
	}
	cfg, err := mysqldriver.ParseDSN(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true

	db, err := sqlx.Open(mysqlDialect.driver, cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	configurePool(db, opts)
	return &Store{db: db, dialect: mysqlDialect}, nil
}

func configurePool(db *sqlx.DB, opts store.Options) {
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// Name returns the backend name.
func (s *Store) Name() string { return s.dialect.name }

// DB returns the underlying sqlx.DB connection pool.
func (s *Store) DB() *sqlx.DB { return s.db }

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.unavailable("ping", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tables lists which englishhub tables exist.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.SelectContext(ctx, &names, s.dialect.tablesQuery); err != nil {
		return nil, s.unavailable("list tables", err)
	}
	return names, nil
}

func (s *Store) unavailable(op string, err error) error {
	return store.Unavailable(s.dialect.name, op, err)
}
