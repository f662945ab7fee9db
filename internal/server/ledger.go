package server

import (
	"context"
	"errors"
	"strings"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/identity"
	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

// caller returns the identity resolved for this request. Every mutation is
// attributed, so a missing identity is an authentication failure.
func caller(ctx context.Context) (model.Identity, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return "", identity.ErrMissingIdentity
	}
	return id, nil
}

// initLedger creates the ledger with owner.
func (s *LedgerServer) initLedger(ctx context.Context, owner string) (model.Identity, error) {
	who, err := caller(ctx)
	if err != nil {
		return "", err
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", inputError("owner is required")
	}
	if err := s.allow(ctx, who); err != nil {
		return "", err
	}
	if err := s.ledger.Init(ctx, model.Identity(owner)); err != nil {
		return "", err
	}
	return model.Identity(owner), nil
}

// addEvent appends an event created by the caller.
func (s *LedgerServer) addEvent(ctx context.Context, in model.NewEvent) (model.Event, error) {
	who, err := caller(ctx)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.allow(ctx, who); err != nil {
		return model.Event{}, err
	}
	return s.ledger.AddEventNow(ctx, in, who)
}

// addVote records one vote by the caller.
func (s *LedgerServer) addVote(ctx context.Context, id model.EventID) (model.Event, error) {
	who, err := caller(ctx)
	if err != nil {
		return model.Event{}, err
	}
	if err := s.allow(ctx, who); err != nil {
		return model.Event{}, err
	}
	return s.ledger.AddVote(ctx, id, who)
}

func (s *LedgerServer) ledgerInfo() *ballotv1.GetLedgerResponse {
	resp := &ballotv1.GetLedgerResponse{EventCount: s.ledger.EventCount()}
	if owner, err := s.ledger.Owner(); err == nil {
		resp.Owner = string(owner)
		resp.Initialized = true
	}
	return resp
}

func (s *LedgerServer) totalVotes(id model.EventID) (*ballotv1.GetTotalVotesResponse, error) {
	e, err := s.ledger.Event(id)
	if err != nil {
		return nil, err
	}
	return &ballotv1.GetTotalVotesResponse{EventID: int64(e.ID), TotalVotes: e.TotalVotes, Votes: e.Votes}, nil
}

func (s *LedgerServer) notifications(ctx context.Context, eventID *model.EventID) ([]*model.Notification, error) {
	out, err := s.store.ListNotifications(ctx, store.NotificationFilter{EventID: eventID})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*model.Notification{}
	}
	return out, nil
}

// InitLedger creates the ledger.
func (s *LedgerServer) InitLedger(ctx context.Context, req *ballotv1.InitLedgerRequest) (*ballotv1.InitLedgerResponse, error) {
	owner, err := s.initLedger(ctx, req.Owner)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ballotv1.InitLedgerResponse{Owner: string(owner)}, nil
}

// GetLedger returns the owner and event count.
func (s *LedgerServer) GetLedger(context.Context, *ballotv1.GetLedgerRequest) (*ballotv1.GetLedgerResponse, error) {
	return s.ledgerInfo(), nil
}

// AddEvent appends an event and returns it.
func (s *LedgerServer) AddEvent(ctx context.Context, req *ballotv1.AddEventRequest) (*ballotv1.AddEventResponse, error) {
	e, err := s.addEvent(ctx, model.NewEvent{
		Title:           req.Title,
		EstimatedBudget: req.EstimatedBudget,
		Description:     req.Description,
	})
	if err != nil {
		return nil, grpcError(err)
	}
	return &ballotv1.AddEventResponse{Event: &e}, nil
}

// ListEvents returns every event in id order.
func (s *LedgerServer) ListEvents(context.Context, *ballotv1.ListEventsRequest) (*ballotv1.ListEventsResponse, error) {
	return &ballotv1.ListEventsResponse{Events: s.ledger.ListEvents()}, nil
}

// EventCount returns the number of events.
func (s *LedgerServer) EventCount(context.Context, *ballotv1.EventCountRequest) (*ballotv1.EventCountResponse, error) {
	return &ballotv1.EventCountResponse{Count: s.ledger.EventCount()}, nil
}

// GetEvent returns a single event.
func (s *LedgerServer) GetEvent(_ context.Context, req *ballotv1.GetEventRequest) (*ballotv1.GetEventResponse, error) {
	e, err := s.ledger.Event(model.EventID(req.ID))
	if err != nil {
		return nil, grpcError(err)
	}
	return &ballotv1.GetEventResponse{Event: &e}, nil
}

// AddVote records a vote and returns the updated event.
func (s *LedgerServer) AddVote(ctx context.Context, req *ballotv1.AddVoteRequest) (*ballotv1.AddVoteResponse, error) {
	e, err := s.addVote(ctx, model.EventID(req.EventID))
	if err != nil {
		return nil, grpcError(err)
	}
	return &ballotv1.AddVoteResponse{Event: &e}, nil
}

// GetTotalVotes returns the vote counter and voter list of an event.
func (s *LedgerServer) GetTotalVotes(_ context.Context, req *ballotv1.GetTotalVotesRequest) (*ballotv1.GetTotalVotesResponse, error) {
	resp, err := s.totalVotes(model.EventID(req.EventID))
	if err != nil {
		return nil, grpcError(err)
	}
	return resp, nil
}

// ListNotifications returns persisted notifications, optionally for one event.
func (s *LedgerServer) ListNotifications(ctx context.Context, req *ballotv1.ListNotificationsRequest) (*ballotv1.ListNotificationsResponse, error) {
	var filter *model.EventID
	if req.EventID != nil {
		id := model.EventID(*req.EventID)
		filter = &id
	}
	out, err := s.notifications(ctx, filter)
	if err != nil {
		return nil, grpcError(err)
	}
	return &ballotv1.ListNotificationsResponse{Notifications: out}, nil
}

// Health returns the service health status.
func (s *LedgerServer) Health(context.Context, *ballotv1.HealthRequest) (*ballotv1.HealthResponse, error) {
	return &ballotv1.HealthResponse{Status: "ok"}, nil
}

// allow consults the rate limiter. A limiter that is unreachable lets the
// request through.
func (s *LedgerServer) allow(ctx context.Context, who model.Identity) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, string(who))
	if err != nil {
		logLimiterError(who, err)
		return nil
	}
	if !ok {
		return errRateLimited
	}
	return nil
}

// isInputError reports whether err is caused by bad client input.
func isInputError(err error) bool {
	var ie inputError
	return errors.As(err, &ie) || errors.Is(err, model.ErrInvalidBudget)
}
