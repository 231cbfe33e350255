// Package api is a small REST client for the postboard server. It keeps the
// current session in memory and rotates the refresh token transparently when
// the access token expires.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"golang.org/x/sync/singleflight"
)

// ErrNotLoggedIn is returned by calls that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in")

type User struct {
	ID       string `json:"id"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

type Session struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
	User             User      `json:"user"`
}

type Post struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerID"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Error is a non-2xx response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the server or a missing
// session.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	return errors.Is(err, ErrNotLoggedIn)
}

// body produces a fresh request body; it is called again when a request is
// retried after a token refresh.
type body func() (io.Reader, string, error)

func jsonBody(v any) body {
	return func() (io.Reader, string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	session *Session

	refreshes singleflight.Group
}

// New returns a client for the server at baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Session returns a copy of the current session.
func (c *Client) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) send(ctx context.Context, method, path string, b body, header http.Header, out any) error {
	var (
		r           io.Reader
		contentType string
	)
	if b != nil {
		var err error
		if r, contentType, err = b(); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &Error{Status: resp.StatusCode, Message: e.Message}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authorized sends the request with the current access token. On 401 it
// refreshes the session once and retries.
func (c *Client) authorized(ctx context.Context, method, path string, b body, out any) error {
	s, ok := c.Session()
	if !ok {
		return ErrNotLoggedIn
	}

	err := c.send(ctx, method, path, b, bearer(s.AccessToken), out)
	if !IsUnauthorized(err) {
		return err
	}

	if err := c.refreshStale(ctx, s.RefreshToken); err != nil {
		return err
	}
	s, ok = c.Session()
	if !ok {
		return ErrNotLoggedIn
	}
	return c.send(ctx, method, path, b, bearer(s.AccessToken), out)
}

// refreshStale rotates the session that was issued with refreshToken.
// Concurrent callers share one refresh request, and a session already
// rotated by another call is not refreshed again.
func (c *Client) refreshStale(ctx context.Context, refreshToken string) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		if cur, ok := c.Session(); ok && cur.RefreshToken != refreshToken {
			return nil, nil
		}
		return nil, c.Refresh(ctx)
	})
	return err
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (c *Client) startSession(ctx context.Context, path string, payload any) (Session, error) {
	var s Session
	if err := c.send(ctx, http.MethodPost, path, jsonBody(payload), nil, &s); err != nil {
		return Session{}, err
	}
	c.setSession(&s)
	return s, nil
}

func (c *Client) Register(ctx context.Context, userName, email string, password []byte) (Session, error) {
	return c.startSession(ctx, "/auth/registration", map[string]string{
		"username": userName,
		"email":    email,
		"password": string(password),
	})
}

// Login authenticates by username or email.
func (c *Client) Login(ctx context.Context, login string, password []byte) (Session, error) {
	return c.startSession(ctx, "/auth/login", map[string]string{
		"login":    login,
		"password": string(password),
	})
}

// Refresh rotates the refresh token. A rejected token ends the session.
func (c *Client) Refresh(ctx context.Context) error {
	s, ok := c.Session()
	if !ok {
		return ErrNotLoggedIn
	}

	h := http.Header{}
	h.Set(common.RefreshTokenHeaderName, s.RefreshToken)

	var next Session
	if err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, h, &next); err != nil {
		if IsUnauthorized(err) {
			c.setSession(nil)
		}
		return err
	}
	c.setSession(&next)
	return nil
}

// Logout revokes the server-side session. The local session is dropped even
// when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	s, ok := c.Session()
	if !ok {
		return nil
	}
	c.setSession(nil)

	h := http.Header{}
	h.Set(common.RefreshTokenHeaderName, s.RefreshToken)
	return c.send(ctx, http.MethodPost, "/auth/logout", nil, h, nil)
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.authorized(ctx, http.MethodGet, "/auth/me", nil, &u)
	return u, err
}

// ListPosts needs no session. Zero limit or offset uses the server default.
func (c *Client) ListPosts(ctx context.Context, limit, offset int) ([]Post, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/posts"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var posts []Post
	err := c.send(ctx, http.MethodGet, path, nil, nil, &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, id string) (Post, error) {
	var p Post
	err := c.send(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

func (c *Client) CreatePost(ctx context.Context, name, description string, images []string) (Post, error) {
	var p Post
	err := c.authorized(ctx, http.MethodPost, "/posts", jsonBody(map[string]any{
		"name":        name,
		"description": description,
		"images":      images,
	}), &p)
	return p, err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.authorized(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
}

// UploadImage stores one image and returns its key.
func (c *Client) UploadImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	b := func() (io.Reader, string, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
		if err := mw.Close(); err != nil {
			return nil, "", err
		}
		return &buf, mw.FormDataContentType(), nil
	}

	var out struct {
		Images []string `json:"images"`
	}
	if err := c.authorized(ctx, http.MethodPost, "/images", b, &out); err != nil {
		return "", err
	}
	if len(out.Images) == 0 {
		return "", errors.New("server returned no image key")
	}
	return out.Images[0], nil
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.send(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}
