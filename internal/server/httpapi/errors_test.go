package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrUserAlreadyExists, http.StatusBadRequest},
		{common.ErrInvalidCredentials, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired), http.StatusUnauthorized},
		{common.ErrNotPostOwner, http.StatusForbidden},
		{common.ErrPostNotFound, http.StatusNotFound},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError_Messages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		production bool
		err        error
		want       string
	}{
		{"domain message", true, common.ErrUserAlreadyExists, common.ErrUserAlreadyExists.Message},
		{"bare kind", true, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken), "unauthorized"},
		{"internal in production", true, errors.New("pq: password authentication failed"), internalErrorMessage},
		{"internal in development", false, errors.New("pq: password authentication failed"), "pq: password authentication failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{log: logging.Nop{}, opts: Options{Production: tt.production}}

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondError(c, tt.err)
			assert.Equal(t, statusFor(tt.err), w.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, tt.want), w.Body.String())
		})
	}
}
