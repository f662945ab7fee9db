package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/identity"
)

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the LedgerService and the standard health service, and returns the server
// ready to serve.
func NewGRPCServer(ledgerServer *LedgerServer, resolver identity.Resolver) *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			IdentityInterceptor(resolver),
		),
	)

	ballotv1.RegisterLedgerServiceServer(srv, ledgerServer)

	hs := health.NewServer()
	hs.SetServingStatus(ballotv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv
}
