package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gowebpki/jcs"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// FormatVersion is the snapshot format written by ExportJSONL.
const FormatVersion = "1"

// Header is the first JSONL record of a snapshot.
type Header struct {
	Version    string         `json:"version"`
	Type       string         `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Owner      model.Identity `json:"owner"`
	EventCount int            `json:"event_count"`
	Digest     string         `json:"digest"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// digestState is the hashed part of a snapshot.
type digestState struct {
	Owner  model.Identity `json:"owner"`
	Events []digestEvent  `json:"events"`
}

// digestEvent mirrors model.Event with the wide integers as strings. RFC 8785
// canonicalizes numbers as IEEE doubles, which cannot hold nanosecond
// timestamps or budgets above 2^53 exactly.
type digestEvent struct {
	ID              model.EventID    `json:"id"`
	Creator         model.Identity   `json:"creator"`
	CreatedAt       string           `json:"created_at"`
	Title           string           `json:"title"`
	EstimatedBudget string           `json:"estimated_budget"`
	TotalVotes      int64            `json:"total_votes"`
	Description     string           `json:"description"`
	Votes           []model.Identity `json:"votes"`
}

func newDigestEvent(e model.Event) digestEvent {
	votes := e.Votes
	if votes == nil {
		votes = []model.Identity{}
	}
	return digestEvent{
		ID:              e.ID,
		Creator:         e.Creator,
		CreatedAt:       strconv.FormatUint(uint64(e.CreatedAt), 10),
		Title:           e.Title,
		EstimatedBudget: e.EstimatedBudget.String(),
		TotalVotes:      e.TotalVotes,
		Description:     e.Description,
		Votes:           votes,
	}
}

// Digest returns "sha256:<hex>" over the canonical (RFC 8785) JSON form of
// the owner and events. Equal states always produce equal digests.
func Digest(l *model.Ledger) (string, error) {
	events := make([]digestEvent, len(l.Events))
	for i, e := range l.Events {
		events[i] = newDigestEvent(e)
	}
	raw, err := json.Marshal(digestState{Owner: l.Owner, Events: events})
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize state: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// ExportJSONL writes l to w as a header line followed by one line per event
// in id order.
func ExportJSONL(w io.Writer, l *model.Ledger, now time.Time) error {
	digest, err := Digest(l)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(Header{
		Version:    FormatVersion,
		Type:       "header",
		Timestamp:  now.UTC(),
		Owner:      l.Owner,
		EventCount: len(l.Events),
		Digest:     digest,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, e := range l.Events {
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return fmt.Errorf("encode event %d: %w", e.ID, err)
		}
	}
	return nil
}
