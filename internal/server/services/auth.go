package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/observability"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
)

// Session is the result of every successful auth flow. It is never persisted.
type Session struct {
	Tokens auth.TokenPair
	User   auth.Identity
}

type RegisterInput struct {
	UserName string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginInput.Login is matched against both username and email.
type LoginInput struct {
	Login    string `validate:"required"`
	Password string `validate:"required"`
}

// AuthOptions tunes AuthService behavior.
type AuthOptions struct {
	// RevokeOnRefreshReuse deletes a user's stored refresh token when a
	// correctly signed but rotated-out token is presented for that user.
	RevokeOnRefreshReuse bool
}

type AuthService struct {
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	tokens      *TokenService
	log         logging.Logger
	opts        AuthOptions
	now         func() time.Time
}

func NewAuthService(m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, tokens *TokenService, log logging.Logger, opts AuthOptions) *AuthService {
	if log == nil {
		log = logging.Nop{}
	}
	return &AuthService{
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("component", "auth"),
		opts:        opts,
		now:         time.Now,
	}
}

func (in *RegisterInput) normalize() {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)
}

// Register creates the account and opens its first session. The user row and
// the refresh token are written in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (session *Session, err error) {
	defer func() { observability.RecordAuth(observability.FlowRegister, err) }()

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	_, err = s.repomanager.Users(s.repomanager.DB()).FindByUserNameOrEmail(ctx, in.UserName, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrUserAlreadyExists
	case !isNotFound(err):
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return nil, common.NewError(common.ErrorBadRequest, err.Error())
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     in.UserName,
			Email:        in.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		session, err = s.issueSession(ctx, s.tokens.WithStore(s.repomanager.RefreshTokens(tx)), user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrUserAlreadyExists) {
			return nil, common.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", session.User.ID)
	return session, nil
}

// Login verifies the password of the user whose username or email equals
// in.Login.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (session *Session, err error) {
	defer func() { observability.RecordAuth(observability.FlowLogin, err) }()

	in.Login = strings.TrimSpace(in.Login)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).FindByUserNameOrEmail(ctx, in.Login, in.Login)
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.issueSession(ctx, s.tokens, user)
}

func unauthorized(cause error) error {
	if cause == nil {
		return common.ErrorUnauthorized
	}
	return fmt.Errorf("%w: %w", common.ErrorUnauthorized, cause)
}

// Refresh exchanges the refresh token on file for a new session. The stored
// token is swapped atomically, so of two concurrent calls presenting the same
// token at most one succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (session *Session, err error) {
	defer func() { observability.RecordAuth(observability.FlowRefresh, err) }()

	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	claimed, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, unauthorized(err)
	}

	record, err := s.tokens.FindPersistedRefreshToken(ctx, refreshToken)
	if err != nil {
		if isNotFound(err) {
			s.onRefreshReuse(ctx, claimed.ID)
			return nil, unauthorized(common.ErrInvalidToken)
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if record.UserID != claimed.ID {
		return nil, unauthorized(common.ErrInvalidToken)
	}
	if !record.ExpiresAt.IsZero() && !s.now().Before(record.ExpiresAt) {
		return nil, unauthorized(common.ErrTokenExpired)
	}

	user, err := s.repomanager.Users(s.repomanager.DB()).FindByID(ctx, claimed.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, unauthorized(err)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	identity := auth.IdentityOf(user)
	pair, err := s.tokens.GenerateTokenPair(identity)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}

	if err := s.tokens.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		if isNotFound(err) {
			return nil, unauthorized(common.ErrInvalidToken)
		}
		return nil, err
	}

	return &Session{Tokens: pair, User: identity}, nil
}

// onRefreshReuse handles a correctly signed refresh token that is no longer on
// file: it was rotated out, revoked, or lost a concurrent rotation.
func (s *AuthService) onRefreshReuse(ctx context.Context, userID string) {
	observability.RecordRefreshReuse()
	s.log.Warn(ctx, "rotated-out refresh token presented", "user_id", userID)

	if !s.opts.RevokeOnRefreshReuse {
		return
	}
	if err := s.tokens.RevokeRefreshToken(ctx, userID); err != nil {
		s.log.Error(ctx, "refresh token revocation failed", "user_id", userID, "error", err)
	}
}

// Logout deletes the refresh token on file if it is the one presented.
// Missing, invalid or already rotated tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { observability.RecordAuth(observability.FlowLogout, err) }()

	if refreshToken == "" {
		return nil
	}
	claimed, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			return nil
		}
		return err
	}

	record, err := s.tokens.FindPersistedRefreshToken(ctx, refreshToken)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("error searching refresh token: %w", err)
	}
	if record.UserID != claimed.ID {
		return nil
	}

	if err := s.tokens.RevokeRefreshToken(ctx, record.UserID); err != nil {
		return err
	}
	s.log.Info(ctx, "user logged out", "user_id", record.UserID)
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, tokens *TokenService, user *models.User) (*Session, error) {
	identity := auth.IdentityOf(user)

	pair, err := tokens.GenerateTokenPair(identity)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}

	if err := tokens.PersistRefreshToken(ctx, user.ID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, err
	}

	return &Session{Tokens: pair, User: identity}, nil
}
