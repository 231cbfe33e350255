package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResponse struct {
	AccessToken      string        `json:"accessToken"`
	RefreshToken     string        `json:"refreshToken"`
	AccessExpiresAt  time.Time     `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time     `json:"refreshExpiresAt"`
	User             auth.Identity `json:"user"`
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return common.NewError(common.ErrorBadRequest, "malformed request body")
	}
	return nil
}

// writeSession sets the refresh cookie and returns the session body.
func (h *Handler) writeSession(c *gin.Context, s *services.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.RefreshTokenCookieName, s.Tokens.RefreshToken,
		int(h.opts.RefreshCookieMaxAge.Seconds()), "/", "", h.opts.CookieSecure, true)

	c.JSON(http.StatusOK, sessionResponse{
		AccessToken:      s.Tokens.AccessToken,
		RefreshToken:     s.Tokens.RefreshToken,
		AccessExpiresAt:  s.Tokens.AccessExpiresAt,
		RefreshExpiresAt: s.Tokens.RefreshExpiresAt,
		User:             s.User,
	})
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", h.opts.CookieSecure, true)
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeSession(c, session)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), services.LoginInput{Login: req.Login, Password: req.Password})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeSession(c, session)
}

// refreshToken looks in the cookie, then the X-Refresh-Token header, then a
// JSON body.
func refreshToken(c *gin.Context) (string, error) {
	if token, err := c.Cookie(common.RefreshTokenCookieName); err == nil && token != "" {
		return token, nil
	}
	if token := c.GetHeader(common.RefreshTokenHeaderName); token != "" {
		return token, nil
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return "", nil
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", common.NewError(common.ErrorBadRequest, "malformed request body")
	}
	return req.RefreshToken, nil
}

func (h *Handler) Refresh(c *gin.Context) {
	token, err := refreshToken(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			h.clearRefreshCookie(c)
		}
		h.respondError(c, err)
		return
	}
	h.writeSession(c, session)
}

func (h *Handler) Logout(c *gin.Context) {
	token, err := refreshToken(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.respondError(c, err)
		return
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	id, err := caller(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}
