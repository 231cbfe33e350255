package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var alice = auth.Identity{ID: "u-1", UserName: "alice", Email: "a@x.com"}

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)
	return issuer
}

func newTestServer(t *testing.T, issuer *auth.TokenIssuer) *GRPCServer {
	t.Helper()
	return NewGRPCServer("127.0.0.1:0", logging.Nop{}, auth.NewResolver(issuer))
}

func withToken(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

func mustNotCall(t *testing.T) grpc.UnaryHandler {
	return func(context.Context, any) (any, error) {
		t.Fatal("handler should not be called")
		return nil, nil
	}
}

func TestInterceptor_HealthIsPublic(t *testing.T) {
	s := newTestServer(t, newIssuer(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	called := false
	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		called = true
		return "ok", nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestInterceptor_Rejects(t *testing.T) {
	issuer := newIssuer(t)
	s := newTestServer(t, issuer)
	info := &grpc.UnaryServerInfo{FullMethod: "/postboard.v1.Posts/Create"}

	pair, err := issuer.GenerateTokenPair(alice)
	require.NoError(t, err)

	tests := []struct {
		name    string
		ctx     context.Context
		message string
	}{
		{"no metadata", context.Background(), "missing token"},
		{"empty token", withToken(""), "missing token"},
		{"garbage", withToken("not-a-valid-jwt"), "unauthorized"},
		{"refresh token", withToken(pair.RefreshToken), "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.accessTokenInterceptor(tt.ctx, nil, info, mustNotCall(t))
			require.Error(t, err)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
			assert.Equal(t, tt.message, status.Convert(err).Message())
		})
	}
}

func TestInterceptor_ValidTokenAttachesIdentity(t *testing.T) {
	issuer := newIssuer(t)
	s := newTestServer(t, issuer)
	info := &grpc.UnaryServerInfo{FullMethod: "/postboard.v1.Posts/Create"}

	pair, err := issuer.GenerateTokenPair(alice)
	require.NoError(t, err)

	var got auth.Identity
	resp, err := s.accessTokenInterceptor(withToken(pair.AccessToken), nil, info, func(ctx context.Context, _ any) (any, error) {
		var err error
		got, err = auth.IdentityFromContext(ctx)
		return "ok", err
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, alice, got)
}
