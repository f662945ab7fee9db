package postgres

import (
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event with an empty voter list.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (model.Event, error) {
	var (
		e         model.Event
		id        int64
		creator   string
		createdAt int64
	)
	err := row.Scan(
		&id,
		&creator,
		&createdAt,
		&e.Title,
		&e.EstimatedBudget,
		&e.TotalVotes,
		&e.Description,
	)
	if err != nil {
		return model.Event{}, err
	}
	if createdAt < 0 {
		return model.Event{}, fmt.Errorf("event %d: negative created_at %d", id, createdAt)
	}
	e.ID = model.EventID(id)
	e.Creator = model.Identity(creator)
	e.CreatedAt = model.Timestamp(createdAt)
	e.Votes = []model.Identity{}
	return e, nil
}

// scanEvents scans multiple rows into a slice of events.
func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// scanVotesInto appends (event_id, voter) rows to the matching events. Rows
// must be ordered by event and sequence.
func scanVotesInto(rows *sql.Rows, events []model.Event) error {
	for rows.Next() {
		var (
			id    int64
			voter string
		)
		if err := rows.Scan(&id, &voter); err != nil {
			return err
		}
		if id < 0 || id >= int64(len(events)) {
			return fmt.Errorf("vote references unknown event %d", id)
		}
		events[id].Votes = append(events[id].Votes, model.Identity(voter))
	}
	return rows.Err()
}

// scanNotification scans a single row into a model.Notification.
func scanNotification(row scannable) (*model.Notification, error) {
	var (
		n       model.Notification
		eventID sql.NullInt64
		actor   string
	)
	err := row.Scan(&n.ID, &n.Topic, &eventID, &actor, &n.Message, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Actor = model.Identity(actor)
	if eventID.Valid {
		id := model.EventID(eventID.Int64)
		n.EventID = &id
	}
	return &n, nil
}

// scanNotifications scans multiple rows into a slice of model.Notification pointers.
func scanNotifications(rows *sql.Rows) ([]*model.Notification, error) {
	var out []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullEventID converts an optional event id to sql.NullInt64.
func nullEventID(id *model.EventID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
