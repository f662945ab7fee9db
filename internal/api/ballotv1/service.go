package ballotv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "ballot.v1.LedgerService"

// Full method names, as seen by interceptors.
const (
	MethodInitLedger        = "/" + ServiceName + "/InitLedger"
	MethodGetLedger         = "/" + ServiceName + "/GetLedger"
	MethodAddEvent          = "/" + ServiceName + "/AddEvent"
	MethodListEvents        = "/" + ServiceName + "/ListEvents"
	MethodEventCount        = "/" + ServiceName + "/EventCount"
	MethodGetEvent          = "/" + ServiceName + "/GetEvent"
	MethodAddVote           = "/" + ServiceName + "/AddVote"
	MethodGetTotalVotes     = "/" + ServiceName + "/GetTotalVotes"
	MethodListNotifications = "/" + ServiceName + "/ListNotifications"
	MethodHealth            = "/" + ServiceName + "/Health"
)

// LedgerServiceServer is the server API for LedgerService.
type LedgerServiceServer interface {
	InitLedger(context.Context, *InitLedgerRequest) (*InitLedgerResponse, error)
	GetLedger(context.Context, *GetLedgerRequest) (*GetLedgerResponse, error)
	AddEvent(context.Context, *AddEventRequest) (*AddEventResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	EventCount(context.Context, *EventCountRequest) (*EventCountResponse, error)
	GetEvent(context.Context, *GetEventRequest) (*GetEventResponse, error)
	AddVote(context.Context, *AddVoteRequest) (*AddVoteResponse, error)
	GetTotalVotes(context.Context, *GetTotalVotesRequest) (*GetTotalVotesResponse, error)
	ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error)
	Health(context.Context, *HealthRequest) (*HealthResponse, error)
}

// UnimplementedLedgerServiceServer can be embedded to satisfy
// LedgerServiceServer with every method returning codes.Unimplemented.
type UnimplementedLedgerServiceServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedLedgerServiceServer) InitLedger(context.Context, *InitLedgerRequest) (*InitLedgerResponse, error) {
	return nil, unimplemented("InitLedger")
}
func (UnimplementedLedgerServiceServer) GetLedger(context.Context, *GetLedgerRequest) (*GetLedgerResponse, error) {
	return nil, unimplemented("GetLedger")
}
func (UnimplementedLedgerServiceServer) AddEvent(context.Context, *AddEventRequest) (*AddEventResponse, error) {
	return nil, unimplemented("AddEvent")
}
func (UnimplementedLedgerServiceServer) ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error) {
	return nil, unimplemented("ListEvents")
}
func (UnimplementedLedgerServiceServer) EventCount(context.Context, *EventCountRequest) (*EventCountResponse, error) {
	return nil, unimplemented("EventCount")
}
func (UnimplementedLedgerServiceServer) GetEvent(context.Context, *GetEventRequest) (*GetEventResponse, error) {
	return nil, unimplemented("GetEvent")
}
func (UnimplementedLedgerServiceServer) AddVote(context.Context, *AddVoteRequest) (*AddVoteResponse, error) {
	return nil, unimplemented("AddVote")
}
func (UnimplementedLedgerServiceServer) GetTotalVotes(context.Context, *GetTotalVotesRequest) (*GetTotalVotesResponse, error) {
	return nil, unimplemented("GetTotalVotes")
}
func (UnimplementedLedgerServiceServer) ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error) {
	return nil, unimplemented("ListNotifications")
}
func (UnimplementedLedgerServiceServer) Health(context.Context, *HealthRequest) (*HealthResponse, error) {
	return nil, unimplemented("Health")
}

// unary adapts a typed server method to a grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for LedgerService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "InitLedger", Handler: unary(MethodInitLedger, LedgerServiceServer.InitLedger)},
		{MethodName: "GetLedger", Handler: unary(MethodGetLedger, LedgerServiceServer.GetLedger)},
		{MethodName: "AddEvent", Handler: unary(MethodAddEvent, LedgerServiceServer.AddEvent)},
		{MethodName: "ListEvents", Handler: unary(MethodListEvents, LedgerServiceServer.ListEvents)},
		{MethodName: "EventCount", Handler: unary(MethodEventCount, LedgerServiceServer.EventCount)},
		{MethodName: "GetEvent", Handler: unary(MethodGetEvent, LedgerServiceServer.GetEvent)},
		{MethodName: "AddVote", Handler: unary(MethodAddVote, LedgerServiceServer.AddVote)},
		{MethodName: "GetTotalVotes", Handler: unary(MethodGetTotalVotes, LedgerServiceServer.GetTotalVotes)},
		{MethodName: "ListNotifications", Handler: unary(MethodListNotifications, LedgerServiceServer.ListNotifications)},
		{MethodName: "Health", Handler: unary(MethodHealth, LedgerServiceServer.Health)},
	},
	Metadata: "ballot/v1/ledger.proto",
}

// RegisterLedgerServiceServer registers srv on s.
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// LedgerServiceClient is the client API for LedgerService.
type LedgerServiceClient interface {
	InitLedger(ctx context.Context, in *InitLedgerRequest, opts ...grpc.CallOption) (*InitLedgerResponse, error)
	GetLedger(ctx context.Context, in *GetLedgerRequest, opts ...grpc.CallOption) (*GetLedgerResponse, error)
	AddEvent(ctx context.Context, in *AddEventRequest, opts ...grpc.CallOption) (*AddEventResponse, error)
	ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error)
	EventCount(ctx context.Context, in *EventCountRequest, opts ...grpc.CallOption) (*EventCountResponse, error)
	GetEvent(ctx context.Context, in *GetEventRequest, opts ...grpc.CallOption) (*GetEventResponse, error)
	AddVote(ctx context.Context, in *AddVoteRequest, opts ...grpc.CallOption) (*AddVoteResponse, error)
	GetTotalVotes(ctx context.Context, in *GetTotalVotesRequest, opts ...grpc.CallOption) (*GetTotalVotesResponse, error)
	ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*ListNotificationsResponse, error)
	Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient returns a client that always uses the JSON codec.
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) InitLedger(ctx context.Context, in *InitLedgerRequest, opts ...grpc.CallOption) (*InitLedgerResponse, error) {
	return invoke[InitLedgerResponse](ctx, c.cc, MethodInitLedger, in, opts)
}

func (c *ledgerServiceClient) GetLedger(ctx context.Context, in *GetLedgerRequest, opts ...grpc.CallOption) (*GetLedgerResponse, error) {
	return invoke[GetLedgerResponse](ctx, c.cc, MethodGetLedger, in, opts)
}

func (c *ledgerServiceClient) AddEvent(ctx context.Context, in *AddEventRequest, opts ...grpc.CallOption) (*AddEventResponse, error) {
	return invoke[AddEventResponse](ctx, c.cc, MethodAddEvent, in, opts)
}

func (c *ledgerServiceClient) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c.cc, MethodListEvents, in, opts)
}

func (c *ledgerServiceClient) EventCount(ctx context.Context, in *EventCountRequest, opts ...grpc.CallOption) (*EventCountResponse, error) {
	return invoke[EventCountResponse](ctx, c.cc, MethodEventCount, in, opts)
}

func (c *ledgerServiceClient) GetEvent(ctx context.Context, in *GetEventRequest, opts ...grpc.CallOption) (*GetEventResponse, error) {
	return invoke[GetEventResponse](ctx, c.cc, MethodGetEvent, in, opts)
}

func (c *ledgerServiceClient) AddVote(ctx context.Context, in *AddVoteRequest, opts ...grpc.CallOption) (*AddVoteResponse, error) {
	return invoke[AddVoteResponse](ctx, c.cc, MethodAddVote, in, opts)
}

func (c *ledgerServiceClient) GetTotalVotes(ctx context.Context, in *GetTotalVotesRequest, opts ...grpc.CallOption) (*GetTotalVotesResponse, error) {
	return invoke[GetTotalVotesResponse](ctx, c.cc, MethodGetTotalVotes, in, opts)
}

func (c *ledgerServiceClient) ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*ListNotificationsResponse, error) {
	return invoke[ListNotificationsResponse](ctx, c.cc, MethodListNotifications, in, opts)
}

func (c *ledgerServiceClient) Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c.cc, MethodHealth, in, opts)
}
