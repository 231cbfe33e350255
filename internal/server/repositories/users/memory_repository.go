package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. The uniqueness check and the
// insert happen under one lock, mirroring the UNIQUE constraints of the
// PostgreSQL schema.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.UserName == user.UserName || u.Email == user.Email {
			return nil, common.ErrUserAlreadyExists
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	r.byID[user.ID] = *user
	return user, nil
}

func (r *MemoryRepository) FindByUserNameOrEmail(_ context.Context, userName, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.UserName == userName || u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}
