package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/identity"
	"github.com/alfredjeanlab/ballot/internal/model"
)

// HTTPClient implements LedgerClient using the ballot HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string, creds Credentials) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Ledger ---

func (c *HTTPClient) InitLedger(ctx context.Context, owner string) (string, error) {
	var resp ballotv1.InitLedgerResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/ledger", ballotv1.InitLedgerRequest{Owner: owner}, &resp); err != nil {
		return "", err
	}
	return resp.Owner, nil
}

func (c *HTTPClient) GetLedger(ctx context.Context) (*ballotv1.GetLedgerResponse, error) {
	var resp ballotv1.GetLedgerResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/ledger", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Events ---

func (c *HTTPClient) AddEvent(ctx context.Context, in model.NewEvent) (*model.Event, error) {
	var e model.Event
	if err := c.doJSON(ctx, http.MethodPost, "/v1/events", in, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]model.Event, error) {
	var resp ballotv1.ListEventsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *HTTPClient) EventCount(ctx context.Context) (int, error) {
	var resp ballotv1.EventCountResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/events/count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *HTTPClient) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	var e model.Event
	if err := c.doJSON(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id.String()), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// --- Votes ---

func (c *HTTPClient) AddVote(ctx context.Context, id model.EventID) (*model.Event, error) {
	var e model.Event
	if err := c.doJSON(ctx, http.MethodPost, "/v1/events/"+url.PathEscape(id.String())+"/votes", nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *HTTPClient) GetTotalVotes(ctx context.Context, id model.EventID) (*ballotv1.GetTotalVotesResponse, error) {
	var resp ballotv1.GetTotalVotesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/events/"+url.PathEscape(id.String())+"/votes", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Notifications ---

func (c *HTTPClient) ListNotifications(ctx context.Context, eventID *model.EventID) ([]*model.Notification, error) {
	path := "/v1/notifications"
	if eventID != nil {
		path += "?" + url.Values{"event_id": {eventID.String()}}.Encode()
	}
	var resp ballotv1.ListNotificationsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp ballotv1.HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}
	if c.creds.Caller != "" {
		req.Header.Set(identity.CallerHeader, c.creds.Caller)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
