// Package events publishes committed ledger changes to an event bus.
package events

import (
	"context"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// Event topic constants
const (
	TopicLedgerInitialized = "ballot.ledger.initialized"
	TopicEventCreated      = "ballot.event.created"
	TopicVoteRecorded      = "ballot.vote.recorded"

	// TopicAll matches every topic above.
	TopicAll = "ballot.>"
)

// Event types

type LedgerInitialized struct {
	Owner model.Identity `json:"owner"`
}

type EventCreated struct {
	Event   *model.Event `json:"event"`
	Message string       `json:"message"`
}

type VoteRecorded struct {
	EventID    model.EventID  `json:"event_id"`
	Voter      model.Identity `json:"voter"`
	TotalVotes int64          `json:"total_votes"`
	Message    string         `json:"message"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
