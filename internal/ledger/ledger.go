// Package ledger implements the event/voting ledger: an append-only list of
// events, each carrying a vote counter that always equals the length of its
// voter list.
//
// Mutations are serialized by a single writer lock held across validation
// and commit; notifications go out after it is released. Readers load the
// latest committed snapshot without locking, and every value they get back
// is a deep copy.
//
// Event ids are positions in the list. That is only safe because events are
// never deleted; introducing deletion requires decoupling ids from positions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alfredjeanlab/ballot/internal/model"
)

var tracer = otel.Tracer("github.com/alfredjeanlab/ballot/internal/ledger")

// Store is the durable commit primitive behind a Ledger. Each method must
// either persist its whole effect or none of it.
type Store interface {
	// LoadLedger returns the committed state, or model.ErrNotInitialized.
	LoadLedger(ctx context.Context) (*model.Ledger, error)
	// InitLedger persists the zero state, or returns model.ErrAlreadyInitialized.
	InitLedger(ctx context.Context, owner model.Identity) error
	// InsertEvent persists a new event with no votes.
	InsertEvent(ctx context.Context, event *model.Event) error
	// AppendVote increments the counter of event id from seq to seq+1 and
	// records voter at position seq, atomically.
	AppendVote(ctx context.Context, id model.EventID, seq int64, voter model.Identity) error
}

// ChangeKind identifies what a Change describes.
type ChangeKind int

const (
	ChangeInitialized ChangeKind = iota + 1
	ChangeEventAdded
	ChangeVoteRecorded
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInitialized:
		return "initialized"
	case ChangeEventAdded:
		return "event_added"
	case ChangeVoteRecorded:
		return "vote_recorded"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change is handed to the Notifier after a mutation has been committed.
type Change struct {
	Kind    ChangeKind
	Actor   model.Identity
	Event   *model.Event // snapshot after the change; nil for ChangeInitialized
	Message string
}

// Notifier receives committed changes. Notification is fire-and-forget: it
// cannot fail the mutation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, change Change)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Change) {}

// state is an immutable committed snapshot. Event values inside are never
// modified after the snapshot is published.
type state struct {
	initialized bool
	owner       model.Identity
	events      []model.Event
}

// Clock supplies creation timestamps. It is called with the writer lock
// held, so timestamps never decrease as ids increase.
type Clock interface {
	Now() model.Timestamp
}

// Ledger owns the events and every operation over them.
type Ledger struct {
	writeMu  sync.Mutex
	current  atomic.Pointer[state]
	store    Store
	notifier Notifier
	clock    Clock
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the receiver of committed changes.
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

// WithClock sets the timestamp source used by AddEventNow. If c has a
// Resume(model.Timestamp) method, Open calls it with the newest stored
// created_at.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// Open loads the committed state from s. An uninitialized store yields an
// empty ledger that accepts Init and reads but rejects other mutations.
func Open(ctx context.Context, s Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{store: s, notifier: noopNotifier{}}
	for _, opt := range opts {
		opt(l)
	}

	loaded, err := s.LoadLedger(ctx)
	switch {
	case errors.Is(err, model.ErrNotInitialized):
		l.current.Store(&state{})
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if !loaded.Consistent() {
		return nil, errors.New("load ledger: stored events are inconsistent")
	}
	l.current.Store(&state{
		initialized: true,
		owner:       loaded.Owner,
		events:      loaded.Clone().Events,
	})
	if r, ok := l.clock.(interface{ Resume(model.Timestamp) }); ok {
		r.Resume(l.LastTimestamp())
	}
	return l, nil
}

// Init creates the ledger with the given owner. It succeeds at most once.
func (l *Ledger) Init(ctx context.Context, owner model.Identity) (err error) {
	ctx, span := tracer.Start(ctx, "ledger.Init")
	defer func() { endSpan(span, err) }()

	if err := l.commitInit(ctx, owner); err != nil {
		return err
	}
	l.notifier.Notify(ctx, Change{Kind: ChangeInitialized, Actor: owner})
	return nil
}

func (l *Ledger) commitInit(ctx context.Context, owner model.Identity) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.current.Load().initialized {
		return model.ErrAlreadyInitialized
	}
	if err := l.store.InitLedger(ctx, owner); err != nil {
		return fmt.Errorf("commit ledger: %w", err)
	}
	l.current.Store(&state{initialized: true, owner: owner})
	return nil
}

// AddEvent appends a new event created by caller at now and returns it. The
// new id equals the number of events before the call. Concurrent callers
// that sample now themselves may commit out of timestamp order; use
// AddEventNow to have the ledger's clock sampled in commit order.
func (l *Ledger) AddEvent(ctx context.Context, in model.NewEvent, caller model.Identity, now model.Timestamp) (model.Event, error) {
	return l.addEvent(ctx, in, caller, func() model.Timestamp { return now })
}

// AddEventNow is AddEvent with created_at taken from the ledger's clock
// while the writer lock is held.
func (l *Ledger) AddEventNow(ctx context.Context, in model.NewEvent, caller model.Identity) (model.Event, error) {
	if l.clock == nil {
		return model.Event{}, errors.New("ledger has no clock")
	}
	return l.addEvent(ctx, in, caller, l.clock.Now)
}

func (l *Ledger) addEvent(ctx context.Context, in model.NewEvent, caller model.Identity, now func() model.Timestamp) (_ model.Event, err error) {
	ctx, span := tracer.Start(ctx, "ledger.AddEvent")
	defer func() { endSpan(span, err) }()

	event, err := l.commitEvent(ctx, in, caller, now)
	if err != nil {
		return model.Event{}, err
	}

	span.SetAttributes(attribute.Int64("event.id", int64(event.ID)))
	snapshot := event.Clone()
	l.notifier.Notify(ctx, Change{Kind: ChangeEventAdded, Actor: caller, Event: &snapshot, Message: model.MessageEventAdded})
	return event.Clone(), nil
}

func (l *Ledger) commitEvent(ctx context.Context, in model.NewEvent, caller model.Identity, now func() model.Timestamp) (model.Event, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	s := l.current.Load()
	if !s.initialized {
		return model.Event{}, model.ErrNotInitialized
	}

	event := model.Event{
		ID:              model.EventID(len(s.events)),
		Creator:         caller,
		CreatedAt:       now(),
		Title:           in.Title,
		EstimatedBudget: in.EstimatedBudget,
		TotalVotes:      0,
		Description:     in.Description,
		Votes:           []model.Identity{},
	}
	if err := l.store.InsertEvent(ctx, &event); err != nil {
		return model.Event{}, fmt.Errorf("commit event: %w", err)
	}
	l.current.Store(&state{
		initialized: true,
		owner:       s.owner,
		events:      append(slices.Clip(s.events), event),
	})
	return event, nil
}

// AddVote records one vote by caller on event id and returns the updated
// event. The same caller may vote any number of times. An id that does not
// index an existing event fails with model.ErrInvalidReference and changes
// nothing.
func (l *Ledger) AddVote(ctx context.Context, id model.EventID, caller model.Identity) (_ model.Event, err error) {
	ctx, span := tracer.Start(ctx, "ledger.AddVote", trace.WithAttributes(attribute.Int64("event.id", int64(id))))
	defer func() { endSpan(span, err) }()

	updated, err := l.commitVote(ctx, id, caller)
	if err != nil {
		return model.Event{}, err
	}

	snapshot := updated.Clone()
	l.notifier.Notify(ctx, Change{Kind: ChangeVoteRecorded, Actor: caller, Event: &snapshot, Message: model.MessageVoteSubmitted})
	return updated.Clone(), nil
}

func (l *Ledger) commitVote(ctx context.Context, id model.EventID, caller model.Identity) (model.Event, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	s := l.current.Load()
	if !s.initialized {
		return model.Event{}, model.ErrNotInitialized
	}
	if !s.valid(id) {
		return model.Event{}, fmt.Errorf("%w: %d", model.ErrInvalidReference, id)
	}

	cur := s.events[id]
	if err := l.store.AppendVote(ctx, id, cur.TotalVotes, caller); err != nil {
		return model.Event{}, fmt.Errorf("commit vote: %w", err)
	}

	updated := cur.Clone()
	updated.Votes = append(updated.Votes, caller)
	updated.TotalVotes = cur.TotalVotes + 1

	events := slices.Clone(s.events)
	events[id] = updated
	l.current.Store(&state{initialized: true, owner: s.owner, events: events})
	return updated, nil
}

// ListEvents returns every event in id order. The result is a copy; later
// mutations never change it.
func (l *Ledger) ListEvents() []model.Event {
	s := l.current.Load()
	out := make([]model.Event, len(s.events))
	for i, e := range s.events {
		out[i] = e.Clone()
	}
	return out
}

// EventCount returns the number of events.
func (l *Ledger) EventCount() int {
	return len(l.current.Load().events)
}

// Event returns a copy of event id.
func (l *Ledger) Event(id model.EventID) (model.Event, error) {
	s := l.current.Load()
	if !s.valid(id) {
		return model.Event{}, fmt.Errorf("%w: %d", model.ErrInvalidReference, id)
	}
	return s.events[id].Clone(), nil
}

// TotalVotes returns the vote counter of event id.
func (l *Ledger) TotalVotes(id model.EventID) (int64, error) {
	s := l.current.Load()
	if !s.valid(id) {
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidReference, id)
	}
	return s.events[id].TotalVotes, nil
}

// Owner returns the identity recorded at Init. The owner is not checked
// against any operation.
func (l *Ledger) Owner() (model.Identity, error) {
	s := l.current.Load()
	if !s.initialized {
		return "", model.ErrNotInitialized
	}
	return s.owner, nil
}

// Initialized reports whether Init has completed.
func (l *Ledger) Initialized() bool {
	return l.current.Load().initialized
}

// Snapshot returns a deep copy of the whole state.
func (l *Ledger) Snapshot() (*model.Ledger, error) {
	s := l.current.Load()
	if !s.initialized {
		return nil, model.ErrNotInitialized
	}
	return (&model.Ledger{Owner: s.owner, Events: s.events}).Clone(), nil
}

// LastTimestamp returns the created_at of the newest event, or 0.
func (l *Ledger) LastTimestamp() model.Timestamp {
	s := l.current.Load()
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].CreatedAt
}

func (s *state) valid(id model.EventID) bool {
	return id >= 0 && int64(id) < int64(len(s.events))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
