package cli

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/postboard/internal/client/api"
	"github.com/dmitrijs2005/postboard/internal/client/config"
	"github.com/dmitrijs2005/postboard/internal/cryptox"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/auth"
	"github.com/dmitrijs2005/postboard/internal/server/httpapi"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type keyOnlyImages struct{}

func (keyOnlyImages) Put(_ context.Context, userID string, img services.ImageUpload) (string, error) {
	_, err := io.Copy(io.Discard, img.Body)
	return services.ImageKeyPrefix(userID) + img.Name, err
}

func (keyOnlyImages) Delete(context.Context, string) error { return nil }

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	issuer, err := auth.NewTokenIssuer("access", "refresh", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	rm := repomanager.NewInMemoryRepositoryManager()
	tokens := services.NewTokenService(issuer, rm.RefreshTokens(nil))
	authSvc := services.NewAuthService(rm, cryptox.NewBcryptHasher(bcrypt.MinCost), tokens, logging.Nop{}, services.AuthOptions{})
	posts := services.NewPostService(rm, keyOnlyImages{}, logging.Nop{})
	h := httpapi.NewHandler(authSvc, posts, auth.NewResolver(issuer), logging.Nop{},
		httpapi.Options{Gatherer: prometheus.NewRegistry()})

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	return &config.Config{ServerURL: srv.URL, RequestTimeout: 5 * time.Second}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}

func newApp(t *testing.T, cfg *config.Config, script ...string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewApp(cfg, strings.NewReader(strings.Join(script, "\n")+"\n"), &out), &out
}

func TestCommands_RegisterPostShowDelete(t *testing.T) {
	stubPassword(t, "p1")
	cfg := newTestConfig(t)
	ctx := context.Background()

	a, out := newApp(t, cfg,
		"a@x.com", "alice", // register
		"Hello", "first line", "second line", "", "", // post
	)

	require.NoError(t, a.Register(ctx))
	assert.Contains(t, out.String(), "Registered and logged in as alice")
	assert.Equal(t, "(alice)", a.getStatus())

	require.NoError(t, a.Me(ctx))
	assert.Contains(t, out.String(), "alice <a@x.com>")

	require.NoError(t, a.Post(ctx))
	posts, err := a.Client().ListPosts(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "first line\nsecond line", posts[0].Description)
	assert.Empty(t, posts[0].Images)

	out.Reset()
	require.NoError(t, a.List(ctx, nil))
	assert.Contains(t, out.String(), "TITLE")
	assert.Contains(t, out.String(), posts[0].ID)

	out.Reset()
	require.NoError(t, a.Show(ctx, []string{posts[0].ID}))
	assert.True(t, strings.HasPrefix(out.String(), "Hello\nfirst line\nsecond line\n"))

	require.NoError(t, a.Delete(ctx, []string{posts[0].ID}))
	assert.Error(t, a.Show(ctx, []string{posts[0].ID}))

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
}

func TestCommands_LoginFailures(t *testing.T) {
	cfg := newTestConfig(t)
	ctx := context.Background()

	stubPassword(t, "p1")
	reg, _ := newApp(t, cfg, "a@x.com", "alice")
	require.NoError(t, reg.Register(ctx))

	stubPassword(t, "wrong")
	a, out := newApp(t, cfg, "alice")
	assert.Error(t, a.Login(ctx))
	assert.Contains(t, out.String(), "login failed: invalid password")
	assert.False(t, a.isLoggedIn())

	out.Reset()
	assert.Error(t, a.Post(ctx))
	assert.Contains(t, out.String(), "please login first")

	out.Reset()
	assert.Error(t, a.Me(ctx))
	assert.Contains(t, out.String(), "please login first")
}

func TestCommands_Upload(t *testing.T) {
	stubPassword(t, "p1")
	cfg := newTestConfig(t)
	ctx := context.Background()

	dir := t.TempDir()
	img := filepath.Join(dir, "cat.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n"), 0o600))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))

	a, out := newApp(t, cfg, "a@x.com", "alice")
	require.NoError(t, a.Register(ctx))
	s, _ := a.Client().Session()

	require.NoError(t, a.Upload(ctx, []string{img}))
	assert.Contains(t, out.String(), "Uploaded "+services.ImageKeyPrefix(s.User.ID)+"cat.png")

	assert.Error(t, a.Upload(ctx, []string{txt}))
	assert.Error(t, a.Upload(ctx, []string{filepath.Join(dir, "missing.png")}))
}

func TestCommands_ListArgs(t *testing.T) {
	a, out := newApp(t, newTestConfig(t))

	require.NoError(t, a.List(context.Background(), nil))
	assert.Contains(t, out.String(), "No posts")

	assert.Error(t, a.List(context.Background(), []string{"ten"}))
	assert.Error(t, a.List(context.Background(), []string{"10", "x"}))
}

func TestRun_ScriptedSession(t *testing.T) {
	stubPassword(t, "p1")
	cfg := newTestConfig(t)

	a, out := newApp(t, cfg,
		"register", "a@x.com", "alice",
		"post", "Scripted", "body", "", "",
		"list",
		"exit",
	)
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })

	a.Run(context.Background())

	assert.Contains(t, out.String(), "Created post")
	assert.Contains(t, out.String(), "Scripted")
	assert.NotContains(t, out.String(), "not reachable")
	assert.False(t, a.isLoggedIn(), "session is closed on exit")
}

func TestPrintPosts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintPosts(&buf, []api.Post{{ID: "p1", Name: "a\tb", Images: []string{"k"}}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "p1"))
	assert.Contains(t, lines[1], "a b")
}
