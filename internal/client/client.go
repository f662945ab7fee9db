// Package client provides a transport-agnostic interface for the ballot
// service with HTTP/JSON and gRPC implementations.
package client

import (
	"context"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/model"
)

// LedgerClient is the interface that all ballot CLI commands use to talk to
// the server. It is implemented by HTTPClient (default) and GRPCClient.
type LedgerClient interface {
	// Ledger
	InitLedger(ctx context.Context, owner string) (string, error)
	GetLedger(ctx context.Context) (*ballotv1.GetLedgerResponse, error)

	// Events
	AddEvent(ctx context.Context, in model.NewEvent) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	EventCount(ctx context.Context) (int, error)
	GetEvent(ctx context.Context, id model.EventID) (*model.Event, error)

	// Votes
	AddVote(ctx context.Context, id model.EventID) (*model.Event, error)
	GetTotalVotes(ctx context.Context, id model.EventID) (*ballotv1.GetTotalVotesResponse, error)

	// Notifications; eventID nil lists all.
	ListNotifications(ctx context.Context, eventID *model.EventID) ([]*model.Notification, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// Credentials identify the caller on every request.
type Credentials struct {
	Token  string // sent as "Authorization: Bearer <Token>" when set
	Caller string // sent as the caller header when set
}
