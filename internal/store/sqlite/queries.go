package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryLoadLedger(ctx context.Context, db executor) (*model.Ledger, error) {
	var owner string
	err := db.QueryRowContext(ctx, `SELECT owner FROM ledger WHERE id = 1`).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, creator, created_at, title, estimated_budget, total_votes, description
		FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	var events []model.Event
	for rows.Next() {
		var (
			e         model.Event
			id        int64
			creator   string
			createdAt int64
		)
		if err := rows.Scan(&id, &creator, &createdAt, &e.Title, &e.EstimatedBudget, &e.TotalVotes, &e.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.ID = model.EventID(id)
		e.Creator = model.Identity(creator)
		e.CreatedAt = model.Timestamp(createdAt)
		e.Votes = []model.Identity{}
		events = append(events, e)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}

	rows, err = db.QueryContext(ctx, `SELECT event_id, voter FROM votes ORDER BY event_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("select votes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id    int64
			voter string
		)
		if err := rows.Scan(&id, &voter); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		if id < 0 || id >= int64(len(events)) {
			return nil, fmt.Errorf("vote references unknown event %d", id)
		}
		events[id].Votes = append(events[id].Votes, model.Identity(voter))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan votes: %w", err)
	}

	return &model.Ledger{Owner: model.Identity(owner), Events: events}, nil
}

func queryInitLedger(ctx context.Context, db executor, owner model.Identity) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO ledger (id, owner) VALUES (1, ?) ON CONFLICT (id) DO NOTHING`,
		string(owner),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrAlreadyInitialized
	}
	return nil
}

func queryInsertEvent(ctx context.Context, db executor, e *model.Event) error {
	if e.CreatedAt > math.MaxInt64 {
		return fmt.Errorf("created_at %d out of range", e.CreatedAt)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, creator, created_at, title, estimated_budget, total_votes, description)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		int64(e.ID),
		string(e.Creator),
		int64(e.CreatedAt),
		e.Title,
		e.EstimatedBudget.String(),
		e.Description,
	)
	return err
}

func queryAppendVote(ctx context.Context, db executor, id model.EventID, seq int64, voter model.Identity) error {
	res, err := db.ExecContext(ctx,
		`UPDATE events SET total_votes = total_votes + 1 WHERE id = ? AND total_votes = ?`,
		int64(id), seq,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var current int64
		err := db.QueryRowContext(ctx, `SELECT total_votes FROM events WHERE id = ?`, int64(id)).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", model.ErrInvalidReference, id)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: event %d has %d votes, expected %d", store.ErrConflict, id, current, seq)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO votes (event_id, seq, voter) VALUES (?, ?, ?)`,
		int64(id), seq, string(voter),
	)
	return err
}

func queryRecordNotification(ctx context.Context, db executor, n *model.Notification) error {
	var eventID sql.NullInt64
	if n.EventID != nil {
		eventID = sql.NullInt64{Int64: int64(*n.EventID), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO notifications (id, topic, event_id, actor, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Topic, eventID, string(n.Actor), n.Message, n.CreatedAt.UTC().UnixNano(),
	)
	return err
}

func queryListNotifications(ctx context.Context, db executor, filter store.NotificationFilter) ([]*model.Notification, error) {
	query := `SELECT id, topic, event_id, actor, message, created_at FROM notifications`
	var args []any
	if filter.EventID != nil {
		query += ` WHERE event_id = ?`
		args = append(args, int64(*filter.EventID))
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		var (
			n         model.Notification
			eventID   sql.NullInt64
			actor     string
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.Topic, &eventID, &actor, &n.Message, &createdAt); err != nil {
			return nil, err
		}
		n.Actor = model.Identity(actor)
		n.CreatedAt = time.Unix(0, createdAt).UTC()
		if eventID.Valid {
			id := model.EventID(eventID.Int64)
			n.EventID = &id
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
