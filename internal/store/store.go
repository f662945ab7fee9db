package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/ballot/internal/ledger"
	"github.com/alfredjeanlab/ballot/internal/model"
)

// ErrConflict is returned by AppendVote when the stored counter is not the
// expected one, which means another writer touched the same ledger.
var ErrConflict = errors.New("concurrent ledger write")

// Store defines the persistence interface for the ledger.
type Store interface {
	// Ledger state
	LoadLedger(ctx context.Context) (*model.Ledger, error)
	InitLedger(ctx context.Context, owner model.Identity) error
	InsertEvent(ctx context.Context, event *model.Event) error
	AppendVote(ctx context.Context, id model.EventID, seq int64, voter model.Identity) error

	// Notifications
	RecordNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]*model.Notification, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}

// NotificationFilter narrows ListNotifications. The zero value matches all.
type NotificationFilter struct {
	EventID *model.EventID
}

// Compile-time check that every Store can back a ledger.
var _ ledger.Store = (Store)(nil)
