package ballotv1

import "github.com/alfredjeanlab/ballot/internal/model"

type InitLedgerRequest struct {
	Owner string `json:"owner"`
}

type InitLedgerResponse struct {
	Owner string `json:"owner"`
}

type GetLedgerRequest struct{}

type GetLedgerResponse struct {
	Owner       string `json:"owner,omitempty"`
	Initialized bool   `json:"initialized"`
	EventCount  int    `json:"event_count"`
}

type AddEventRequest struct {
	Title           string       `json:"title"`
	EstimatedBudget model.Budget `json:"estimated_budget"`
	Description     string       `json:"description"`
}

type AddEventResponse struct {
	Event *model.Event `json:"event"`
}

type ListEventsRequest struct{}

type ListEventsResponse struct {
	Events []model.Event `json:"events"`
}

type EventCountRequest struct{}

type EventCountResponse struct {
	Count int `json:"count"`
}

type GetEventRequest struct {
	ID int64 `json:"id"`
}

type GetEventResponse struct {
	Event *model.Event `json:"event"`
}

type AddVoteRequest struct {
	EventID int64 `json:"event_id"`
}

type AddVoteResponse struct {
	Event *model.Event `json:"event"`
}

type GetTotalVotesRequest struct {
	EventID int64 `json:"event_id"`
}

type GetTotalVotesResponse struct {
	EventID    int64            `json:"id"`
	TotalVotes int64            `json:"total_votes"`
	Votes      []model.Identity `json:"votes"`
}

type ListNotificationsRequest struct {
	EventID *int64 `json:"event_id,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []*model.Notification `json:"notifications"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
}
