// Package sqlite implements the store.Store interface backed by an embedded
// SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements store.Store backed by a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and runs any pending
// migrations.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	// SQLite allows a single writer; share one connection.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadLedger(ctx context.Context) (*model.Ledger, error) {
	return queryLoadLedger(ctx, s.db)
}

func (s *SQLiteStore) InitLedger(ctx context.Context, owner model.Identity) error {
	return queryInitLedger(ctx, s.db, owner)
}

func (s *SQLiteStore) InsertEvent(ctx context.Context, event *model.Event) error {
	return queryInsertEvent(ctx, s.db, event)
}

// AppendVote bumps the counter and records the voter in one transaction.
func (s *SQLiteStore) AppendVote(ctx context.Context, id model.EventID, seq int64, voter model.Identity) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.AppendVote(ctx, id, seq, voter)
	})
}

func (s *SQLiteStore) RecordNotification(ctx context.Context, n *model.Notification) error {
	return queryRecordNotification(ctx, s.db, n)
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, filter store.NotificationFilter) ([]*model.Notification, error) {
	return queryListNotifications(ctx, s.db, filter)
}

// RunInTransaction calls fn with a store bound to a single transaction,
// committing only when fn succeeds.
func (s *SQLiteStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

var _ store.Store = (*txStore)(nil)

func (s *txStore) LoadLedger(ctx context.Context) (*model.Ledger, error) {
	return queryLoadLedger(ctx, s.tx)
}

func (s *txStore) InitLedger(ctx context.Context, owner model.Identity) error {
	return queryInitLedger(ctx, s.tx, owner)
}

func (s *txStore) InsertEvent(ctx context.Context, event *model.Event) error {
	return queryInsertEvent(ctx, s.tx, event)
}

func (s *txStore) AppendVote(ctx context.Context, id model.EventID, seq int64, voter model.Identity) error {
	return queryAppendVote(ctx, s.tx, id, seq, voter)
}

func (s *txStore) RecordNotification(ctx context.Context, n *model.Notification) error {
	return queryRecordNotification(ctx, s.tx, n)
}

func (s *txStore) ListNotifications(ctx context.Context, filter store.NotificationFilter) ([]*model.Notification, error) {
	return queryListNotifications(ctx, s.tx, filter)
}

func (s *txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *txStore) Close() error { return nil }
