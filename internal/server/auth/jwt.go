package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims carries the identity plus the token class. Both classes share the
// layout but are signed with different keys.
type Claims struct {
	jwt.RegisteredClaims
	Type     string `json:"typ"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

func (c *Claims) identity() Identity {
	return Identity{ID: c.Subject, UserName: c.UserName, Email: c.Email}
}

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer signs and validates HS256 tokens. It keeps no state.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenIssuer builds an issuer. The two secrets must differ so that a
// refresh token is never accepted as an access token and vice versa.
func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token validity durations must be positive")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (ti *TokenIssuer) sign(id Identity, typ string, secret []byte, expiresAt, issuedAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Type:     typ,
		UserName: id.UserName,
		Email:    id.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// GenerateTokenPair mints an access and a refresh token for id.
func (ti *TokenIssuer) GenerateTokenPair(id Identity) (TokenPair, error) {
	if !id.Complete() {
		return TokenPair{}, fmt.Errorf("incomplete identity: %w", common.ErrorInternal)
	}

	now := ti.now()
	pair := TokenPair{
		AccessExpiresAt:  now.Add(ti.accessTTL),
		RefreshExpiresAt: now.Add(ti.refreshTTL),
	}

	var err error
	pair.AccessToken, err = ti.sign(id, tokenTypeAccess, ti.accessSecret, pair.AccessExpiresAt, now)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	pair.RefreshToken, err = ti.sign(id, tokenTypeRefresh, ti.refreshSecret, pair.RefreshExpiresAt, now)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return pair, nil
}

func (ti *TokenIssuer) parse(token, typ string, secret []byte) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}
	if !parsed.Valid || claims.Type != typ {
		return Identity{}, common.ErrInvalidToken
	}

	id := claims.identity()
	if !id.Complete() {
		return Identity{}, common.ErrInvalidToken
	}
	return id, nil
}

// ValidateAccessToken verifies signature, expiry and class of an access token.
// Failures are common.ErrInvalidToken or common.ErrTokenExpired.
func (ti *TokenIssuer) ValidateAccessToken(token string) (Identity, error) {
	return ti.parse(token, tokenTypeAccess, ti.accessSecret)
}

// ValidateRefreshToken is ValidateAccessToken for the refresh key.
func (ti *TokenIssuer) ValidateRefreshToken(token string) (Identity, error) {
	return ti.parse(token, tokenTypeRefresh, ti.refreshSecret)
}

func (ti *TokenIssuer) AccessTTL() time.Duration  { return ti.accessTTL }
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }
