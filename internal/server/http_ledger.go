package server

import (
	"encoding/json"
	"net/http"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/model"
)

// maxBodyBytes bounds mutation request bodies.
const maxBodyBytes = 64 << 10

// handleInitLedger handles POST /v1/ledger.
func (s *LedgerServer) handleInitLedger(w http.ResponseWriter, r *http.Request) {
	var in ballotv1.InitLedgerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	owner, err := s.initLedger(r.Context(), in.Owner)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ballotv1.InitLedgerResponse{Owner: string(owner)})
}

// handleGetLedger handles GET /v1/ledger.
func (s *LedgerServer) handleGetLedger(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledgerInfo())
}

// handleAddEvent handles POST /v1/events.
func (s *LedgerServer) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	// Anonymous callers are rejected before the body is parsed.
	if _, err := caller(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	var in model.NewEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	e, err := s.addEvent(r.Context(), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// handleListEvents handles GET /v1/events.
func (s *LedgerServer) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ballotv1.ListEventsResponse{Events: s.ledger.ListEvents()})
}

// handleEventCount handles GET /v1/events/count.
func (s *LedgerServer) handleEventCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ballotv1.EventCountResponse{Count: s.ledger.EventCount()})
}

// handleGetEvent handles GET /v1/events/{id}.
func (s *LedgerServer) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathEventID(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	e, err := s.ledger.Event(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleAddVote handles POST /v1/events/{id}/votes.
func (s *LedgerServer) handleAddVote(w http.ResponseWriter, r *http.Request) {
	id, err := pathEventID(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	e, err := s.addVote(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleGetTotalVotes handles GET /v1/events/{id}/votes.
func (s *LedgerServer) handleGetTotalVotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathEventID(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp, err := s.totalVotes(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListNotifications handles GET /v1/notifications[?event_id=N].
func (s *LedgerServer) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	var filter *model.EventID
	if v := r.URL.Query().Get("event_id"); v != "" {
		id, err := model.ParseEventID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid event_id")
			return
		}
		filter = &id
	}
	out, err := s.notifications(r.Context(), filter)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballotv1.ListNotificationsResponse{Notifications: out})
}

// pathEventID parses the {id} path segment. Non-numeric ids are input
// errors; negative ids parse and are rejected by the ledger.
func pathEventID(r *http.Request) (model.EventID, error) {
	id, err := model.ParseEventID(r.PathValue("id"))
	if err != nil {
		return 0, inputError("invalid event id " + r.PathValue("id"))
	}
	return id, nil
}
