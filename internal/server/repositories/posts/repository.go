// Package posts stores posts and the image keys attached to them.
package posts

import (
	"context"

	"github.com/dmitrijs2005/postboard/internal/server/models"
)

// Repository persists posts. Reads and writes of a missing post return
// common.ErrPostNotFound.
type Repository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)

	// Update and Delete only touch rows owned by post.UserID.
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id, userID string) error
}
