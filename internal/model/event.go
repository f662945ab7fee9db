package model

import (
	"slices"
	"strconv"
)

// Identity is an opaque caller identifier supplied by the authentication
// layer. Two identities are the same caller iff the strings are equal.
type Identity string

// String returns the identity as a plain string.
func (i Identity) String() string {
	return string(i)
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i == ""
}

// EventID is the position of an event in the ledger. IDs are dense and
// zero-based; they stay stable only because events are never deleted.
type EventID int64

// String returns the decimal form of the id.
func (id EventID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseEventID parses a decimal event id. Negative values parse successfully;
// the ledger rejects them as invalid references.
func ParseEventID(s string) (EventID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return EventID(n), nil
}

// Timestamp is a logical creation time in nanoseconds, supplied by the
// environment at creation time.
type Timestamp uint64

// Event is a proposal open for voting.
//
// Field order matches the persisted layout and must not change.
type Event struct {
	ID              EventID    `json:"id"`
	Creator         Identity   `json:"creator"`
	CreatedAt       Timestamp  `json:"created_at"`
	Title           string     `json:"title"`
	EstimatedBudget Budget     `json:"estimated_budget"`
	TotalVotes      int64      `json:"total_votes"`
	Description     string     `json:"description"`
	Votes           []Identity `json:"votes"`
}

// Clone returns a deep copy of the event. The voter list of the copy never
// shares storage with the original.
func (e Event) Clone() Event {
	c := e
	c.Votes = slices.Clone(e.Votes)
	if c.Votes == nil {
		c.Votes = []Identity{}
	}
	return c
}

// NewEvent holds the caller-supplied content of an event.
// Empty strings and a zero budget are accepted.
type NewEvent struct {
	Title           string `json:"title"`
	EstimatedBudget Budget `json:"estimated_budget"`
	Description     string `json:"description"`
}
