package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
)

// MemoryRepository is a mutex-guarded map from user ID to record. Replace is a
// compare-and-swap under the lock.
type MemoryRepository struct {
	mu     sync.Mutex
	byUser map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byUser: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Upsert(_ context.Context, rt *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rt
	stored.CreatedAt = time.Now().UTC()
	r.byUser[rt.UserID] = stored
	return nil
}

func (r *MemoryRepository) FindByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.byUser {
		if rt.TokenHash == tokenHash {
			found := rt
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Replace(_ context.Context, oldHash string, next *models.RefreshToken) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[next.UserID]
	if !ok || current.TokenHash != oldHash {
		return false, nil
	}

	stored := *next
	stored.CreatedAt = time.Now().UTC()
	r.byUser[next.UserID] = stored
	return true, nil
}

func (r *MemoryRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byUser, userID)
	return nil
}
