package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/ballot/internal/model"
	"github.com/alfredjeanlab/ballot/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var eventRowColumns = []string{"id", "creator", "created_at", "title", "estimated_budget", "total_votes", "description"}

var notificationRowColumns = []string{"id", "topic", "event_id", "actor", "message", "created_at"}

func TestQueryLoadLedger(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT owner FROM ledger WHERE id = 1").
		WillReturnRows(sqlmock.NewRows([]string{"owner"}).AddRow("alice"))
	mock.ExpectQuery("SELECT .+ FROM events ORDER BY id").
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow(0, "alice", int64(1000), "Art Show", "200", 2, "d").
			AddRow(1, "carol", int64(2000), "Picnic", "340282366920938463463374607431768211455", 0, ""))
	mock.ExpectQuery("SELECT event_id, voter FROM votes ORDER BY event_id, seq").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "voter"}).
			AddRow(0, "bob").
			AddRow(0, "bob"))

	l, err := queryLoadLedger(context.Background(), db)
	if err != nil {
		t.Fatalf("queryLoadLedger: %v", err)
	}
	if l.Owner != "alice" || len(l.Events) != 2 {
		t.Fatalf("unexpected ledger %+v", l)
	}
	if !l.Consistent() {
		t.Fatalf("loaded ledger inconsistent: %+v", l)
	}
	if l.Events[0].Votes[1] != "bob" || l.Events[0].CreatedAt != 1000 {
		t.Errorf("event 0 = %+v", l.Events[0])
	}
	if l.Events[1].EstimatedBudget.String() != "340282366920938463463374607431768211455" {
		t.Errorf("budget = %s", l.Events[1].EstimatedBudget)
	}
	if l.Events[1].Votes == nil {
		t.Error("expected non-nil votes for event with no votes")
	}
}

func TestQueryLoadLedger_NotInitialized(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT owner FROM ledger").WillReturnError(sql.ErrNoRows)

	if _, err := queryLoadLedger(context.Background(), db); !errors.Is(err, model.ErrNotInitialized) {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestQueryLoadLedger_OrphanVote(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT owner FROM ledger").
		WillReturnRows(sqlmock.NewRows([]string{"owner"}).AddRow("alice"))
	mock.ExpectQuery("SELECT .+ FROM events").
		WillReturnRows(sqlmock.NewRows(eventRowColumns))
	mock.ExpectQuery("SELECT event_id, voter FROM votes").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "voter"}).AddRow(3, "bob"))

	if _, err := queryLoadLedger(context.Background(), db); err == nil {
		t.Fatal("expected error for vote on unknown event")
	}
}

func TestQueryInitLedger(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO ledger").WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger").WithArgs("mallory").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := queryInitLedger(context.Background(), db, "alice"); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := queryInitLedger(context.Background(), db, "mallory"); !errors.Is(err, model.ErrAlreadyInitialized) {
		t.Fatalf("second init err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestQueryInsertEvent(t *testing.T) {
	db, mock := newMockDB(t)
	e := &model.Event{
		ID:              3,
		Creator:         "alice",
		CreatedAt:       42,
		Title:           "Art Show",
		EstimatedBudget: model.NewBudget(200),
		Description:     "d",
	}
	mock.ExpectExec("INSERT INTO events").
		WithArgs(int64(3), "alice", int64(42), "Art Show", "200", "d").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryInsertEvent(context.Background(), db, e); err != nil {
		t.Fatalf("queryInsertEvent: %v", err)
	}
}

func TestQueryAppendVote(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events SET total_votes = total_votes \\+ 1 WHERE id = \\$1 AND total_votes = \\$2").
		WithArgs(int64(0), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO votes").
		WithArgs(int64(0), int64(4), "bob").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.AppendVote(context.Background(), 0, 4, "bob"); err != nil {
		t.Fatalf("AppendVote: %v", err)
	}
}

func TestQueryAppendVote_InvalidReference(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events").WithArgs(int64(9), int64(0)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT total_votes FROM events WHERE id = \\$1").WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	if err := s.AppendVote(context.Background(), 9, 0, "bob"); !errors.Is(err, model.ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
}

func TestQueryAppendVote_Conflict(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events").WithArgs(int64(0), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT total_votes FROM events").WithArgs(int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"total_votes"}).AddRow(2))
	mock.ExpectRollback()

	if err := s.AppendVote(context.Background(), 0, 1, "bob"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestQueryAppendVote_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO votes").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := s.AppendVote(context.Background(), 0, 0, "bob"); err == nil {
		t.Fatal("expected error")
	}
}

func TestQueryRecordNotification(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	id := model.EventID(2)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("nt-abc", "ballot.vote.recorded", int64(2), "bob", model.MessageVoteSubmitted, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs("nt-def", "ballot.ledger.initialized", nil, "alice", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := queryRecordNotification(context.Background(), db, &model.Notification{
		ID: "nt-abc", Topic: "ballot.vote.recorded", EventID: &id, Actor: "bob",
		Message: model.MessageVoteSubmitted, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("record with event: %v", err)
	}
	err = queryRecordNotification(context.Background(), db, &model.Notification{
		ID: "nt-def", Topic: "ballot.ledger.initialized", Actor: "alice", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("record without event: %v", err)
	}
}

func TestQueryListNotifications(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM notifications ORDER BY created_at, id").
		WillReturnRows(sqlmock.NewRows(notificationRowColumns).
			AddRow("nt-1", "ballot.ledger.initialized", nil, "alice", "", now).
			AddRow("nt-2", "ballot.event.created", 0, "alice", model.MessageEventAdded, now))
	mock.ExpectQuery("SELECT .+ FROM notifications WHERE event_id = \\$1 ORDER BY created_at, id").
		WithArgs(int64(0)).
		WillReturnRows(sqlmock.NewRows(notificationRowColumns).
			AddRow("nt-2", "ballot.event.created", 0, "alice", model.MessageEventAdded, now))

	all, err := queryListNotifications(context.Background(), db, store.NotificationFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].EventID != nil || all[1].EventID == nil || *all[1].EventID != 0 {
		t.Fatalf("unexpected notifications %+v", all)
	}

	id := model.EventID(0)
	filtered, err := queryListNotifications(context.Background(), db, store.NotificationFilter{EventID: &id})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Message != model.MessageEventAdded {
		t.Fatalf("unexpected filtered notifications %+v", filtered)
	}
}

func TestNullEventID(t *testing.T) {
	if nullEventID(nil).Valid {
		t.Error("nullEventID(nil) should be invalid")
	}
	id := model.EventID(5)
	if n := nullEventID(&id); !n.Valid || n.Int64 != 5 {
		t.Errorf("nullEventID(5) = %v", n)
	}
}
