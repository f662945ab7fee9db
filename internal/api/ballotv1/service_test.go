package ballotv1

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/alfredjeanlab/ballot/internal/model"
)

type echoServer struct {
	UnimplementedLedgerServiceServer
	seen []string
}

func (s *echoServer) AddEvent(_ context.Context, req *AddEventRequest) (*AddEventResponse, error) {
	return &AddEventResponse{Event: &model.Event{
		ID:              7,
		Title:           req.Title,
		EstimatedBudget: req.EstimatedBudget,
		Description:     req.Description,
		Votes:           []model.Identity{},
	}}, nil
}

func (s *echoServer) Health(context.Context, *HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{Status: "ok"}, nil
}

func dialTestServer(t *testing.T, srv LedgerServiceServer, opts ...grpc.ServerOption) LedgerServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(opts...)
	RegisterLedgerServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewLedgerServiceClient(conn)
}

func TestRoundTripOverJSONCodec(t *testing.T) {
	client := dialTestServer(t, &echoServer{})

	big := model.MustParseBudget("340282366920938463463374607431768211455")
	resp, err := client.AddEvent(context.Background(), &AddEventRequest{Title: "Art Show", EstimatedBudget: big, Description: "d"})
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if resp.Event.ID != 7 || resp.Event.Title != "Art Show" || !resp.Event.EstimatedBudget.Equal(big) {
		t.Fatalf("unexpected event %+v", resp.Event)
	}

	h, err := client.Health(context.Background(), &HealthRequest{})
	if err != nil || h.Status != "ok" {
		t.Fatalf("Health = %+v, %v", h, err)
	}
}

func TestUnimplemented(t *testing.T) {
	client := dialTestServer(t, &echoServer{})
	_, err := client.AddVote(context.Background(), &AddVoteRequest{EventID: 0})
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("code = %v, want Unimplemented", status.Code(err))
	}
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	srv := &echoServer{}
	intercept := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		srv.seen = append(srv.seen, info.FullMethod)
		return handler(ctx, req)
	}
	client := dialTestServer(t, srv, grpc.UnaryInterceptor(intercept))

	if _, err := client.Health(context.Background(), &HealthRequest{}); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if len(srv.seen) != 1 || srv.seen[0] != MethodHealth {
		t.Fatalf("seen = %v, want [%s]", srv.seen, MethodHealth)
	}
}

func TestCodecName(t *testing.T) {
	var c jsonCodec
	if c.Name() != CodecName {
		t.Fatalf("Name() = %q", c.Name())
	}
	data, err := c.Marshal(&GetTotalVotesResponse{EventID: 1, TotalVotes: 2, Votes: []model.Identity{"bob", "bob"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"id":1,"total_votes":2,"votes":["bob","bob"]}` {
		t.Fatalf("Marshal = %s", data)
	}
}
