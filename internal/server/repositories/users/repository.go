// Package users declares the credential store and its PostgreSQL and
// in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/postboard/internal/server/models"
)

// Repository persists user records. Lookups return common.ErrorNotFound when
// no user matches; Create returns common.ErrUserAlreadyExists when the
// username or email is taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByUserNameOrEmail matches username = userName OR email = email, so a
	// single call checks uniqueness against either identifier.
	FindByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error)

	FindByID(ctx context.Context, id string) (*models.User, error)
}
