// Package httpapi exposes the REST API over gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options tunes the HTTP layer.
type Options struct {
	Production   bool
	CookieSecure bool
	// RefreshCookieMaxAge defaults to 30 days.
	RefreshCookieMaxAge time.Duration
	// MaxImageSize limits each uploaded file, in bytes.
	MaxImageSize int64
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Ready is polled by /healthz; nil always reports healthy.
	Ready func(ctx context.Context) error
}

type Handler struct {
	auth     *services.AuthService
	posts    *services.PostService
	resolver *auth.Resolver
	log      logging.Logger
	opts     Options
}

func NewHandler(authSvc *services.AuthService, posts *services.PostService, resolver *auth.Resolver, log logging.Logger, opts Options) *Handler {
	if log == nil {
		log = logging.Nop{}
	}
	if opts.RefreshCookieMaxAge <= 0 {
		opts.RefreshCookieMaxAge = 30 * 24 * time.Hour
	}
	if opts.MaxImageSize <= 0 {
		opts.MaxImageSize = 5 << 20
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		auth:     authSvc,
		posts:    posts,
		resolver: resolver,
		log:      log.With("component", "http"),
		opts:     opts,
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.instrument())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})))

	authGroup := r.Group("/auth")
	authGroup.POST("/registration", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/refresh", h.Refresh)
	authGroup.POST("/refresh", h.Refresh)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.requireAuth(), h.Me)

	r.GET("/posts", h.ListPosts)
	r.GET("/posts/:id", h.GetPost)

	protected := r.Group("/")
	protected.Use(h.requireAuth())
	{
		protected.POST("/posts", h.CreatePost)
		protected.PUT("/posts/:id", h.UpdatePost)
		protected.DELETE("/posts/:id", h.DeletePost)
		protected.POST("/images", h.UploadImages)
	}

	return r
}

func (h *Handler) Health(c *gin.Context) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(c.Request.Context()); err != nil {
			h.log.Warn(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
