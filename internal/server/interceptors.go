package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	ballotv1 "github.com/alfredjeanlab/ballot/internal/api/ballotv1"
	"github.com/alfredjeanlab/ballot/internal/identity"
)

// LoggingInterceptor logs the method name, duration, and error (if any) for every
// unary RPC call.
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	duration := time.Since(start)

	if err != nil {
		slog.Error("rpc completed",
			"method", info.FullMethod,
			"duration", duration,
			"code", status.Code(err).String(),
			"error", err,
		)
	} else {
		slog.Info("rpc completed",
			"method", info.FullMethod,
			"duration", duration,
		)
	}

	return resp, err
}

// RecoveryInterceptor catches panics in downstream handlers, logs the stack
// trace, and returns a codes.Internal error instead of crashing the server.
func RecoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in gRPC handler",
				"method", info.FullMethod,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

// IdentityInterceptor returns a gRPC unary interceptor that resolves the
// caller from the "authorization" and "x-ballot-caller" metadata. Invalid
// credentials fail with codes.Unauthenticated; calls that name no caller
// proceed anonymously. The Health RPC is always exempt.
func IdentityInterceptor(resolver identity.Resolver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if resolver == nil || info.FullMethod == ballotv1.MethodHealth {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		who, err := resolver.Resolve(ctx, identity.Credentials{
			Authorization: firstValue(md, "authorization"),
			Caller:        firstValue(md, strings.ToLower(identity.CallerHeader)),
		})
		switch {
		case errors.Is(err, identity.ErrMissingIdentity):
			return handler(ctx, req)
		case err != nil:
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(identity.WithCaller(ctx, who), req)
	}
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
