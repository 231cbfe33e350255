// Package auth issues and validates JWT access/refresh tokens and resolves the
// caller identity that protected handlers depend on.
package auth

import (
	"context"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
)

// Identity is the minimal projection of a user embedded in both token classes
// and used for ownership checks.
type Identity struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

// IdentityOf projects a stored user.
func IdentityOf(u *models.User) Identity {
	return Identity{ID: u.ID, UserName: u.UserName, Email: u.Email}
}

// Complete reports whether every field is populated. Partial identities are
// never trusted.
func (i Identity) Complete() bool {
	return i.ID != "" && i.UserName != "" && i.Email != ""
}

type ctxKey struct{}

// WithIdentity attaches a resolved identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the caller identity or common.ErrorUnauthorized
// when the request was not authenticated.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || !id.Complete() {
		return Identity{}, common.ErrorUnauthorized
	}
	return id, nil
}
