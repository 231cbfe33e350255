// Package grpc runs the gRPC endpoint: the standard health service behind the
// access-token interceptor.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	address  string
	resolver *auth.Resolver
	logger   logging.Logger
	health   *health.Server
	register []func(grpc.ServiceRegistrar)
}

// NewGRPCServer builds a server listening on a. Extra services may be
// attached with register; they are all guarded by the access-token interceptor.
func NewGRPCServer(a string, l logging.Logger, resolver *auth.Resolver, register ...func(grpc.ServiceRegistrar)) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		resolver: resolver,
		health:   health.NewServer(),
		register: register,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	for _, r := range s.register {
		r(srv)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
