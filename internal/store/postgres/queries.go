package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

// eventColumns is the column list used for SELECT statements on the events table.
const eventColumns = `id, creator, created_at, title, estimated_budget, total_votes, description`

// notificationColumns is the column list used for SELECT statements on the notifications table.
const notificationColumns = `id, topic, event_id, actor, message, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
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

	rows, err := db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	events, err := scanEvents(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}

	rows, err = db.QueryContext(ctx, `SELECT event_id, voter FROM votes ORDER BY event_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("select votes: %w", err)
	}
	defer rows.Close()
	if err := scanVotesInto(rows, events); err != nil {
		return nil, fmt.Errorf("scan votes: %w", err)
	}

	return &model.Ledger{Owner: model.Identity(owner), Events: events}, nil
}

func queryInitLedger(ctx context.Context, db executor, owner model.Identity) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO ledger (id, owner) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
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
		INSERT INTO events (
			id, creator, created_at, title, estimated_budget, total_votes, description
		) VALUES (
			$1, $2, $3, $4, $5, 0, $6
		)`,
		int64(e.ID),
		string(e.Creator),
		int64(e.CreatedAt),
		e.Title,
		e.EstimatedBudget,
		e.Description,
	)
	return err
}

// queryAppendVote must run inside a transaction: the counter update and the
// voter insert commit together or not at all.
func queryAppendVote(ctx context.Context, db executor, id model.EventID, seq int64, voter model.Identity) error {
	res, err := db.ExecContext(ctx,
		`UPDATE events SET total_votes = total_votes + 1 WHERE id = $1 AND total_votes = $2`,
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
		err := db.QueryRowContext(ctx, `SELECT total_votes FROM events WHERE id = $1`, int64(id)).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", model.ErrInvalidReference, id)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: event %d has %d votes, expected %d", store.ErrConflict, id, current, seq)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO votes (event_id, seq, voter) VALUES ($1, $2, $3)`,
		int64(id), seq, string(voter),
	)
	return err
}

func queryRecordNotification(ctx context.Context, db executor, n *model.Notification) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID,
		n.Topic,
		nullEventID(n.EventID),
		string(n.Actor),
		n.Message,
		n.CreatedAt,
	)
	return err
}

func queryListNotifications(ctx context.Context, db executor, filter store.NotificationFilter) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	var args []any
	if filter.EventID != nil {
		query += ` WHERE event_id = $1`
		args = append(args, int64(*filter.EventID))
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotifications(rows)
}
