package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

func accessToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
		return values[0]
	}
	return ""
}

// accessTokenInterceptor resolves the caller for every method except the
// health service and attaches the identity to the handler context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
		return handler(ctx, req)
	}

	token := accessToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	id, err := s.resolver.Resolve(token)
	if err != nil {
		s.logger.Debug(ctx, "rejected grpc call", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	return handler(auth.WithIdentity(ctx, id), req)
}
