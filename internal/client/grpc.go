package client

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/identity"
	"github.com/alfredjeanlab/ballot/internal/model"
)

// GRPCClient implements LedgerClient using the gRPC transport.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client ballotv1.LedgerServiceClient
}

// NewGRPCClient connects to the given gRPC address and returns a client.
// Extra dial options are appended after the defaults.
func NewGRPCClient(addr string, creds Credentials, opts ...grpc.DialOption) (*GRPCClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(ballotv1.CallOption()),
		grpc.WithUnaryInterceptor(credentialsInterceptor(creds)),
	}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: ballotv1.NewLedgerServiceClient(conn),
	}, nil
}

// credentialsInterceptor attaches the token and caller to outgoing metadata.
func credentialsInterceptor(creds Credentials) grpc.UnaryClientInterceptor {
	var pairs []string
	if creds.Token != "" {
		pairs = append(pairs, "authorization", "Bearer "+creds.Token)
	}
	if creds.Caller != "" {
		pairs = append(pairs, strings.ToLower(identity.CallerHeader), creds.Caller)
	}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if len(pairs) > 0 {
			ctx = metadata.AppendToOutgoingContext(ctx, pairs...)
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// --- Ledger ---

func (c *GRPCClient) InitLedger(ctx context.Context, owner string) (string, error) {
	resp, err := c.client.InitLedger(ctx, &ballotv1.InitLedgerRequest{Owner: owner})
	if err != nil {
		return "", err
	}
	return resp.Owner, nil
}

func (c *GRPCClient) GetLedger(ctx context.Context) (*ballotv1.GetLedgerResponse, error) {
	return c.client.GetLedger(ctx, &ballotv1.GetLedgerRequest{})
}

// --- Events ---

func (c *GRPCClient) AddEvent(ctx context.Context, in model.NewEvent) (*model.Event, error) {
	resp, err := c.client.AddEvent(ctx, &ballotv1.AddEventRequest{
		Title:           in.Title,
		EstimatedBudget: in.EstimatedBudget,
		Description:     in.Description,
	})
	if err != nil {
		return nil, err
	}
	return resp.Event, nil
}

func (c *GRPCClient) ListEvents(ctx context.Context) ([]model.Event, error) {
	resp, err := c.client.ListEvents(ctx, &ballotv1.ListEventsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *GRPCClient) EventCount(ctx context.Context) (int, error) {
	resp, err := c.client.EventCount(ctx, &ballotv1.EventCountRequest{})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *GRPCClient) GetEvent(ctx context.Context, id model.EventID) (*model.Event, error) {
	resp, err := c.client.GetEvent(ctx, &ballotv1.GetEventRequest{ID: int64(id)})
	if err != nil {
		return nil, err
	}
	return resp.Event, nil
}

// --- Votes ---

func (c *GRPCClient) AddVote(ctx context.Context, id model.EventID) (*model.Event, error) {
	resp, err := c.client.AddVote(ctx, &ballotv1.AddVoteRequest{EventID: int64(id)})
	if err != nil {
		return nil, err
	}
	return resp.Event, nil
}

func (c *GRPCClient) GetTotalVotes(ctx context.Context, id model.EventID) (*ballotv1.GetTotalVotesResponse, error) {
	return c.client.GetTotalVotes(ctx, &ballotv1.GetTotalVotesRequest{EventID: int64(id)})
}

// --- Notifications ---

func (c *GRPCClient) ListNotifications(ctx context.Context, eventID *model.EventID) ([]*model.Notification, error) {
	req := &ballotv1.ListNotificationsRequest{}
	if eventID != nil {
		id := int64(*eventID)
		req.EventID = &id
	}
	resp, err := c.client.ListNotifications(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

// --- Health ---

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.client.Health(ctx, &ballotv1.HealthRequest{})
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}
