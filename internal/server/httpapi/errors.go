package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal server error"

type errorResponse struct {
	Message string `json:"message"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.ErrorBadRequest:
		return http.StatusBadRequest
	case common.ErrorUnauthorized:
		return http.StatusUnauthorized
	case common.ErrorForbidden:
		return http.StatusForbidden
	case common.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing text. Domain errors carry their own
// message; internal errors are generic in production.
func (h *Handler) messageFor(err error, status int) string {
	var domain *common.Error
	if errors.As(err, &domain) {
		return domain.Message
	}
	if status == http.StatusInternalServerError {
		if h.opts.Production {
			return internalErrorMessage
		}
		return err.Error()
	}
	return common.KindOf(err).Error()
}

// respondError logs err and writes the mapped status and message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	ctx := c.Request.Context()

	if status == http.StatusInternalServerError {
		h.log.Error(ctx, "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	} else {
		h.log.Debug(ctx, "request rejected", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, errorResponse{Message: h.messageFor(err, status)})
}
