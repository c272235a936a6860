// Package sqlite implements ledger storage on a single SQLite database so
// journal appends, projection updates, and dedup reservations share one
// transaction boundary.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/centbook/centbook/internal/platform/storage/sqlitemigrate"
	"github.com/centbook/centbook/internal/services/ledger/domain/event"
	"github.com/centbook/centbook/internal/services/ledger/storage"
	"github.com/centbook/centbook/internal/services/ledger/storage/sqlite/migrations"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// dbtx is the subset of *sql.DB and *sql.Tx the store queries through.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides a SQLite-backed store implementing all ledger storage
// interfaces. A Store is either root (db is the *sql.DB) or a transaction
// clone produced by withTx.
type Store struct {
	sqlDB     *sql.DB
	db        dbtx
	tx        *sql.Tx
	registry  *event.Registry
	projector storage.Projector
}

func (s *Store) withTx(tx *sql.Tx) *Store {
	if s == nil || tx == nil {
		return s
	}
	cloned := *s
	cloned.db = tx
	cloned.tx = tx
	return &cloned
}

// Open opens the ledger store at the provided path and applies embedded
// migrations. The projector runs inside every append transaction; passing
// nil disables synchronous projections (used by rebuild tooling).
func Open(path string, registry *event.Registry, projector storage.Projector) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		sqlDB:     sqlDB,
		db:        sqlDB,
		registry:  registry,
		projector: projector,
	}, nil
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// inTx runs fn against a transaction clone of the store. When the store is
// already a transaction clone, fn runs directly so nested calls share the
// outer transaction.
func (s *Store) inTx(ctx context.Context, fn func(txStore *Store) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.withTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// WithRebuildTx runs fn against a transaction-scoped view of the store that
// exposes rebuild operations. The whole rebuild commits or rolls back as one.
func (s *Store) WithRebuildTx(ctx context.Context, fn func(tx storage.RebuildTx) error) error {
	return s.inTx(ctx, func(txStore *Store) error {
		return fn(txStore)
	})
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
