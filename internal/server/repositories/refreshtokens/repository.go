// Package refreshtokens declares the refresh-token store: at most one record
// per user, keyed by user ID and looked up by token digest.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/postboard/internal/server/models"
)

type Repository interface {
	// Upsert stores rt as the user's only refresh token, replacing any prior one.
	Upsert(ctx context.Context, rt *models.RefreshToken) error

	// FindByHash returns the record whose digest equals tokenHash, or
	// common.ErrorNotFound.
	FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Replace swaps the user's record for next only if the stored digest is
	// still oldHash. It reports whether the swap happened.
	Replace(ctx context.Context, oldHash string, next *models.RefreshToken) (bool, error)

	// DeleteByUserID removes the user's record. Deleting nothing is not an error.
	DeleteByUserID(ctx context.Context, userID string) error
}
