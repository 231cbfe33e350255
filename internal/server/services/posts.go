package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ImageStore keeps image bytes in object storage and hands back a key.
type ImageStore interface {
	Put(ctx context.Context, userID string, img ImageUpload) (string, error)
	Delete(ctx context.Context, key string) error
}

// ImageUpload is a single uploaded file.
type ImageUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageKeyPrefix is the storage prefix shared by every image userID uploads.
func ImageKeyPrefix(userID string) string {
	return "images/" + userID + "/"
}

type PostInput struct {
	Name        string   `validate:"required"`
	Description string
	Images      []string `validate:"dive,required"`
}

// check normalizes in and verifies that every referenced image was uploaded
// by owner.
func (in *PostInput) check(owner auth.Identity) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return err
	}
	prefix := ImageKeyPrefix(owner.ID)
	for _, key := range in.Images {
		if !strings.HasPrefix(key, prefix) {
			return common.ErrForeignImage
		}
	}
	return nil
}

// PostService implements post CRUD with ownership checks against the caller
// identity.
type PostService struct {
	repomanager repomanager.RepositoryManager
	images      ImageStore
	log         logging.Logger
}

func NewPostService(m repomanager.RepositoryManager, images ImageStore, log logging.Logger) *PostService {
	if log == nil {
		log = logging.Nop{}
	}
	return &PostService{repomanager: m, images: images, log: log.With("component", "posts")}
}

func (s *PostService) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	posts, err := s.repomanager.Posts(s.repomanager.DB()).List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

// Get returns post id. Ids that are not UUIDs cannot exist and are reported
// as not found without a lookup.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrPostNotFound
	}
	return s.repomanager.Posts(s.repomanager.DB()).FindByID(ctx, id)
}

func (s *PostService) Create(ctx context.Context, owner auth.Identity, in PostInput) (*models.Post, error) {
	if err := in.check(owner); err != nil {
		return nil, err
	}
	return s.repomanager.Posts(s.repomanager.DB()).Create(ctx, &models.Post{
		UserID:      owner.ID,
		Name:        in.Name,
		Description: in.Description,
		Images:      in.Images,
	})
}

// owned loads post id and checks that owner wrote it.
func (s *PostService) owned(ctx context.Context, owner auth.Identity, id string) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.UserID != owner.ID {
		return nil, common.ErrNotPostOwner
	}
	return post, nil
}

// Update replaces the post fields. Images dropped from the post are removed
// from storage.
func (s *PostService) Update(ctx context.Context, owner auth.Identity, id string, in PostInput) (*models.Post, error) {
	if err := in.check(owner); err != nil {
		return nil, err
	}
	post, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	dropped := difference(post.Images, in.Images)

	post.Name = in.Name
	post.Description = in.Description
	post.Images = in.Images
	if err := s.repomanager.Posts(s.repomanager.DB()).Update(ctx, post); err != nil {
		return nil, err
	}

	s.deleteImages(ctx, dropped)
	return s.Get(ctx, id)
}

// Delete removes the post and its images.
func (s *PostService) Delete(ctx context.Context, owner auth.Identity, id string) error {
	post, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.repomanager.Posts(s.repomanager.DB()).Delete(ctx, id, owner.ID); err != nil {
		return err
	}
	s.deleteImages(ctx, post.Images)
	return nil
}

// UploadImages stores every upload and returns the keys in order. On failure
// the images stored so far are removed.
func (s *PostService) UploadImages(ctx context.Context, owner auth.Identity, uploads []ImageUpload) ([]string, error) {
	if len(uploads) == 0 {
		return nil, common.NewError(common.ErrorBadRequest, "no images uploaded")
	}

	keys := make([]string, 0, len(uploads))
	for _, up := range uploads {
		if !strings.HasPrefix(up.ContentType, "image/") {
			s.deleteImages(ctx, keys)
			return nil, common.NewError(common.ErrorBadRequest, fmt.Sprintf("%s is not an image", up.Name))
		}
		key, err := s.images.Put(ctx, owner.ID, up)
		if err != nil {
			s.deleteImages(ctx, keys)
			return nil, fmt.Errorf("error storing image: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// deleteImages is best effort: a dangling object is logged, not surfaced.
func (s *PostService) deleteImages(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.images.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "image delete failed", "key", key, "error", err)
		}
	}
}

func difference(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, k := range b {
		keep[k] = struct{}{}
	}
	var out []string
	for _, k := range a {
		if _, ok := keep[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
