package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

const imagesFormField = "images"

type postRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

func (r postRequest) input() services.PostInput {
	return services.PostInput{Name: r.Name, Description: r.Description, Images: r.Images}
}

type postResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerID"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPostResponse(p *models.Post) postResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return postResponse{
		ID:          p.ID,
		OwnerID:     p.UserID,
		Name:        p.Name,
		Description: p.Description,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewError(common.ErrorBadRequest, fmt.Sprintf("%s must be an integer", name))
	}
	return v, nil
}

func (h *Handler) ListPosts(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		h.respondError(c, err)
		return
	}

	posts, err := h.posts.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) CreatePost(c *gin.Context) {
	owner, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req postRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), owner, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPostResponse(post))
}

func (h *Handler) UpdatePost(c *gin.Context) {
	owner, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req postRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	post, err := h.posts.Update(c.Request.Context(), owner, c.Param("id"), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) DeletePost(c *gin.Context) {
	owner, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.posts.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UploadImages(c *gin.Context) {
	owner, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, common.NewError(common.ErrorBadRequest, "expected multipart form with images"))
		return
	}
	files := form.File[imagesFormField]
	if len(files) == 0 {
		h.respondError(c, common.NewError(common.ErrorBadRequest, "no images uploaded"))
		return
	}

	uploads := make([]services.ImageUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.opts.MaxImageSize {
			h.respondError(c, common.NewError(common.ErrorBadRequest, fmt.Sprintf("%s exceeds %d bytes", fh.Filename, h.opts.MaxImageSize)))
			return
		}
		f, err := fh.Open()
		if err != nil {
			h.respondError(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer f.Close()

		uploads = append(uploads, services.ImageUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	keys, err := h.posts.UploadImages(c.Request.Context(), owner, uploads)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": keys})
}
