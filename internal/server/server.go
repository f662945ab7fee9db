package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/clock"
	"github.com/alfredjeanlab/ballot/internal/events"
	"github.com/alfredjeanlab/ballot/internal/idgen"
	"github.com/alfredjeanlab/ballot/internal/ledger"
	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

// LedgerServer implements ballotv1.LedgerServiceServer and the HTTP API on
// top of a single ledger.Ledger. It is also the ledger's Notifier.
type LedgerServer struct {
	ballotv1.UnimplementedLedgerServiceServer
	ledger    *ledger.Ledger
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	clock     clock.Source
	limiter   Limiter
}

// Option configures a LedgerServer.
type Option func(*LedgerServer)

// WithClock sets the source of event creation timestamps.
func WithClock(c clock.Source) Option {
	return func(s *LedgerServer) { s.clock = c }
}

// WithLimiter rate-limits mutations per caller.
func WithLimiter(l Limiter) Option {
	return func(s *LedgerServer) { s.limiter = l }
}

// NewLedgerServer loads the ledger from s and returns a server for it.
func NewLedgerServer(ctx context.Context, s store.Store, p events.Publisher, opts ...Option) (*LedgerServer, error) {
	srv := &LedgerServer{
		store:     s,
		publisher: p,
		sseHub:    newSSEHub(),
		clock:     clock.NewMonotonic(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	// Open resumes the clock past the newest stored timestamp.
	l, err := ledger.Open(ctx, s, ledger.WithNotifier(srv), ledger.WithClock(srv.clock))
	if err != nil {
		return nil, err
	}
	srv.ledger = l
	return srv, nil
}

// Ledger returns the underlying ledger.
func (s *LedgerServer) Ledger() *ledger.Ledger {
	return s.ledger
}

// Notify implements ledger.Notifier.
func (s *LedgerServer) Notify(ctx context.Context, c ledger.Change) {
	// The mutation is already committed; a cancelled request must not lose
	// its notification.
	ctx = context.WithoutCancel(ctx)

	switch c.Kind {
	case ledger.ChangeInitialized:
		s.recordAndPublish(ctx, events.TopicLedgerInitialized, nil, c.Actor, c.Message,
			events.LedgerInitialized{Owner: c.Actor})
	case ledger.ChangeEventAdded:
		id := c.Event.ID
		s.recordAndPublish(ctx, events.TopicEventCreated, &id, c.Actor, c.Message,
			events.EventCreated{Event: c.Event, Message: c.Message})
	case ledger.ChangeVoteRecorded:
		id := c.Event.ID
		s.recordAndPublish(ctx, events.TopicVoteRecorded, &id, c.Actor, c.Message,
			events.VoteRecorded{EventID: id, Voter: c.Actor, TotalVotes: c.Event.TotalVotes, Message: c.Message})
	default:
		slog.Warn("unknown ledger change", "kind", c.Kind.String())
	}
}

// recordAndPublish persists a notification to the store, publishes it to
// NATS, and fans it out to SSE clients. All three are best-effort; failures
// are logged but do not reach the caller.
func (s *LedgerServer) recordAndPublish(ctx context.Context, topic string, eventID *model.EventID, actor model.Identity, message string, event any) {
	id, err := idgen.Notification()
	if err != nil {
		slog.Warn("failed to generate notification id", "topic", topic, "error", err)
	} else if err := s.store.RecordNotification(ctx, &model.Notification{
		ID:        id,
		Topic:     topic,
		EventID:   eventID,
		Actor:     actor,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Warn("failed to record notification", "topic", topic, "actor", actor, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish notification", "topic", topic, "actor", actor, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// errRateLimited is returned when a caller exceeds its mutation budget.
var errRateLimited = errors.New("rate limit exceeded")
