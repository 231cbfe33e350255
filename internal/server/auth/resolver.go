package auth

import (
	"fmt"

	"github.com/dmitrijs2005/postboard/internal/common"
)

// AccessTokenValidator is the stateless half of the token service.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (Identity, error)
}

// Resolver turns a bearer access token into a caller identity. It never
// consults persisted state.
type Resolver struct {
	tokens AccessTokenValidator
}

func NewResolver(tokens AccessTokenValidator) *Resolver {
	return &Resolver{tokens: tokens}
}

// Resolve returns a complete identity or an error wrapping
// common.ErrorUnauthorized.
func (r *Resolver) Resolve(token string) (Identity, error) {
	if token == "" {
		return Identity{}, common.ErrorUnauthorized
	}
	id, err := r.tokens.ValidateAccessToken(token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	if !id.Complete() {
		return Identity{}, common.ErrorUnauthorized
	}
	return id, nil
}
