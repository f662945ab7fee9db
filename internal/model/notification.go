package model

import "time"

// Notification messages emitted after successful mutations.
const (
	MessageEventAdded    = "Added a new event!"
	MessageVoteSubmitted = "Vote submitted successfully for this event!"
)

// Notification is a persisted, best-effort observability record. Nothing in
// the ledger depends on notifications being delivered exactly once.
type Notification struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	EventID   *EventID  `json:"event_id,omitempty"`
	Actor     Identity  `json:"actor,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
