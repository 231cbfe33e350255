package httpapi

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/observability"
	"github.com/gin-gonic/gin"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireAuth resolves the bearer token and stores the identity in the request
// context. Requests without a valid token stop here with 401.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := h.resolver.Resolve(bearerToken(c))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// caller is the identity attached by requireAuth.
func caller(c *gin.Context) (auth.Identity, error) {
	id, err := auth.IdentityFromContext(c.Request.Context())
	if err != nil {
		return auth.Identity{}, common.ErrorUnauthorized
	}
	return id, nil
}

// instrument records request metrics and an access log line.
func (h *Handler) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		observability.RecordHTTPRequest(c.Request.Method, route, status, elapsed)
		h.log.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
		)
	}
}
