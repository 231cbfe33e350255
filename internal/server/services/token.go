package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/refreshtokens"
)

// TokenService couples the stateless issuer with the refresh-token store.
// Tokens are stored as SHA-256 digests; callers always pass the raw token.
type TokenService struct {
	issuer *auth.TokenIssuer
	store  refreshtokens.Repository
}

func NewTokenService(issuer *auth.TokenIssuer, store refreshtokens.Repository) *TokenService {
	return &TokenService{issuer: issuer, store: store}
}

// WithStore returns a copy bound to store, typically a transaction-scoped one.
func (s *TokenService) WithStore(store refreshtokens.Repository) *TokenService {
	return &TokenService{issuer: s.issuer, store: store}
}

func (s *TokenService) GenerateTokenPair(id auth.Identity) (auth.TokenPair, error) {
	return s.issuer.GenerateTokenPair(id)
}

func (s *TokenService) ValidateAccessToken(token string) (auth.Identity, error) {
	return s.issuer.ValidateAccessToken(token)
}

func (s *TokenService) ValidateRefreshToken(token string) (auth.Identity, error) {
	return s.issuer.ValidateRefreshToken(token)
}

// PersistRefreshToken makes token the only refresh token on file for userID.
func (s *TokenService) PersistRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	err := s.store.Upsert(ctx, &models.RefreshToken{
		UserID:    userID,
		TokenHash: cryptox.HashToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("error persisting refresh token: %w", err)
	}
	return nil
}

// FindPersistedRefreshToken returns common.ErrorNotFound when token is not the
// one on file for any user.
func (s *TokenService) FindPersistedRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return s.store.FindByHash(ctx, cryptox.HashToken(token))
}

// RotateRefreshToken swaps oldToken for newToken only if oldToken is still on
// file. A concurrent rotation that got there first yields common.ErrorNotFound.
func (s *TokenService) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) error {
	ok, err := s.store.Replace(ctx, cryptox.HashToken(oldToken), &models.RefreshToken{
		UserID:    userID,
		TokenHash: cryptox.HashToken(newToken),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return fmt.Errorf("error rotating refresh token: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

// RevokeRefreshToken removes whatever refresh token userID has on file.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, userID string) error {
	if err := s.store.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
