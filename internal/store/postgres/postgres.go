// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) LoadLedger(ctx context.Context) (*model.Ledger, error) {
	return queryLoadLedger(ctx, s.db)
}

func (s *PostgresStore) InitLedger(ctx context.Context, owner model.Identity) error {
	return queryInitLedger(ctx, s.db, owner)
}

func (s *PostgresStore) InsertEvent(ctx context.Context, event *model.Event) error {
	return queryInsertEvent(ctx, s.db, event)
}

// AppendVote bumps the counter and records the voter in one transaction.
func (s *PostgresStore) AppendVote(ctx context.Context, id model.EventID, seq int64, voter model.Identity) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.AppendVote(ctx, id, seq, voter)
	})
}

func (s *PostgresStore) RecordNotification(ctx context.Context, n *model.Notification) error {
	return queryRecordNotification(ctx, s.db, n)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, filter store.NotificationFilter) ([]*model.Notification, error) {
	return queryListNotifications(ctx, s.db, filter)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
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

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
