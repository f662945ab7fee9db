// Package storetest provides an in-memory store.Store for tests, with hooks
// for injecting commit failures.
package storetest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

// Store is an in-memory store.Store. It is safe for concurrent use.
type Store struct {
	mu            sync.Mutex
	initialized   bool
	owner         model.Identity
	events        []model.Event
	notifications []*model.Notification

	// Fail, when non-nil, is consulted before every mutating call. A non-nil
	// return aborts the call with that error.
	Fail func(op string) error

	Commits int // successful InitLedger/InsertEvent/AppendVote calls
}

var _ store.Store = (*Store)(nil)

// New returns an empty, uninitialized store.
func New() *Store {
	return &Store{}
}

// NewInitialized returns a store already initialized with owner.
func NewInitialized(owner model.Identity) *Store {
	return &Store{initialized: true, owner: owner}
}

// FailNext makes the next mutating call named op fail with err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	once := false
	s.Fail = func(called string) error {
		if called == op && !once {
			once = true
			return err
		}
		return nil
	}
}

// Notifications returns the recorded notifications.
func (s *Store) Notifications() []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notifications)
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

func (s *Store) LoadLedger(_ context.Context) (*model.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, model.ErrNotInitialized
	}
	return (&model.Ledger{Owner: s.owner, Events: s.events}).Clone(), nil
}

func (s *Store) InitLedger(_ context.Context, owner model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InitLedger"); err != nil {
		return err
	}
	if s.initialized {
		return model.ErrAlreadyInitialized
	}
	s.initialized = true
	s.owner = owner
	s.Commits++
	return nil
}

func (s *Store) InsertEvent(_ context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertEvent"); err != nil {
		return err
	}
	if !s.initialized {
		return model.ErrNotInitialized
	}
	if int(event.ID) != len(s.events) {
		return fmt.Errorf("%w: insert id %d with %d events", store.ErrConflict, event.ID, len(s.events))
	}
	s.events = append(s.events, event.Clone())
	s.Commits++
	return nil
}

func (s *Store) AppendVote(_ context.Context, id model.EventID, seq int64, voter model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AppendVote"); err != nil {
		return err
	}
	if id < 0 || int(id) >= len(s.events) {
		return fmt.Errorf("%w: %d", model.ErrInvalidReference, id)
	}
	e := &s.events[id]
	if e.TotalVotes != seq {
		return fmt.Errorf("%w: event %d has %d votes, expected %d", store.ErrConflict, id, e.TotalVotes, seq)
	}
	e.Votes = append(e.Votes, voter)
	e.TotalVotes++
	s.Commits++
	return nil
}

func (s *Store) RecordNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("RecordNotification"); err != nil {
		return err
	}
	cp := *n
	s.notifications = append(s.notifications, &cp)
	return nil
}

func (s *Store) ListNotifications(_ context.Context, filter store.NotificationFilter) ([]*model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Notification
	for _, n := range s.notifications {
		if filter.EventID != nil && (n.EventID == nil || *n.EventID != *filter.EventID) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

// RunInTransaction runs fn against the store itself; there is no rollback.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *Store) Close() error { return nil }
