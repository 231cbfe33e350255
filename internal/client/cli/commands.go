package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/postboard/internal/client/api"
)

var errLoginRequired = errors.New("please login first")

// fail prints err and returns it so the REPL can ignore it.
func (a *App) fail(what string, err error) error {
	if api.IsUnauthorized(err) && !a.isLoggedIn() {
		err = errLoginRequired
	}
	fmt.Fprintf(a.out, "%s failed: %v\n", what, err)
	return err
}

func (a *App) credentials(loginPrompt string) (string, []byte, error) {
	login, err := GetSimpleText(a.reader, loginPrompt, a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return login, password, nil
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.fail("register", err)
	}
	userName, password, err := a.credentials("Enter user name")
	if err != nil {
		return a.fail("register", err)
	}
	defer clear(password)

	s, err := a.client.Register(ctx, userName, email, password)
	if err != nil {
		return a.fail("register", err)
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", s.User.UserName)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, password, err := a.credentials("Enter user name or email")
	if err != nil {
		return a.fail("login", err)
	}
	defer clear(password)

	s, err := a.client.Login(ctx, login, password)
	if err != nil {
		return a.fail("login", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", s.User.UserName)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return a.fail("logout", err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	u, err := a.client.Me(ctx)
	if err != nil {
		return a.fail("me", err)
	}
	fmt.Fprintf(a.out, "%s <%s> id=%s\n", u.UserName, u.Email, u.ID)
	return nil
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, nil
	}
	return strconv.Atoi(args[i])
}

// List prints a page of posts: list [limit] [offset].
func (a *App) List(ctx context.Context, args []string) error {
	limit, err := intArg(args, 0)
	if err != nil {
		return a.fail("list", fmt.Errorf("limit: %w", err))
	}
	offset, err := intArg(args, 1)
	if err != nil {
		return a.fail("list", fmt.Errorf("offset: %w", err))
	}

	posts, err := a.client.ListPosts(ctx, limit, offset)
	if err != nil {
		return a.fail("list", err)
	}
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts")
		return nil
	}
	return PrintPosts(a.out, posts)
}

func (a *App) Show(ctx context.Context, args []string) error {
	p, err := a.client.GetPost(ctx, args[0])
	if err != nil {
		return a.fail("show", err)
	}
	fmt.Fprintf(a.out, "%s\n%s\n\nby %s at %s\n", p.Name, p.Description, p.OwnerID, p.CreatedAt.Format(time.RFC3339))
	for _, img := range p.Images {
		fmt.Fprintf(a.out, "  image: %s\n", img)
	}
	return nil
}

func (a *App) Post(ctx context.Context) error {
	if !a.isLoggedIn() {
		return a.fail("post", errLoginRequired)
	}

	name, err := GetSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return a.fail("post", err)
	}
	description, err := GetMultiline(a.reader, "Enter text", a.out)
	if err != nil {
		return a.fail("post", err)
	}
	images, err := GetSimpleText(a.reader, "Image keys, comma separated (optional)", a.out)
	if err != nil {
		return a.fail("post", err)
	}

	p, err := a.client.CreatePost(ctx, name, description, splitList(images))
	if err != nil {
		return a.fail("post", err)
	}
	fmt.Fprintf(a.out, "Created post %s\n", p.ID)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if err := a.client.DeletePost(ctx, args[0]); err != nil {
		return a.fail("delete", err)
	}
	fmt.Fprintf(a.out, "Deleted post %s\n", args[0])
	return nil
}

// Upload sends a local image file and prints the key to reference in a post.
func (a *App) Upload(ctx context.Context, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return a.fail("upload", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key, err := a.client.UploadImage(ctx, filepath.Base(path), contentType, data)
	if err != nil {
		return a.fail("upload", err)
	}
	fmt.Fprintf(a.out, "Uploaded %s\n", key)
	return nil
}

// PrintPosts writes posts as an aligned table.
func PrintPosts(w io.Writer, posts []api.Post) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tIMAGES\tCREATED")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, strings.ReplaceAll(p.Name, "\t", " "), len(p.Images), p.CreatedAt.Format(time.DateTime))
	}
	return tw.Flush()
}
