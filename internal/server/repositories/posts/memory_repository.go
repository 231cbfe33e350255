package posts

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	posts map[string]models.Post
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[string]models.Post)}
}

func clonePost(p models.Post) *models.Post {
	p.Images = slices.Clone(p.Images)
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p
}

func (r *MemoryRepository) Create(_ context.Context, post *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts[post.ID] = *clonePost(*post)
	return post, nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, common.ErrPostNotFound
	}
	return clonePost(p), nil
}

func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]*models.Post, error) {
	r.mu.RLock()
	all := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		all = append(all, clonePost(p))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) Update(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.posts[post.ID]
	if !ok || cur.UserID != post.UserID {
		return common.ErrPostNotFound
	}
	cur.Name = post.Name
	cur.Description = post.Description
	cur.Images = slices.Clone(post.Images)
	cur.UpdatedAt = time.Now().UTC()
	r.posts[post.ID] = cur
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.posts[id]
	if !ok || cur.UserID != userID {
		return common.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}
