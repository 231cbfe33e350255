package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) record(name string, args ...string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error {
	f.loggedIn = true
	return f.record("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Me(context.Context) error                   { return f.record("me") }
func (f *fakeExec) List(_ context.Context, a []string) error   { return f.record("list", a...) }
func (f *fakeExec) Show(_ context.Context, a []string) error   { return f.record("show", a...) }
func (f *fakeExec) Post(context.Context) error                 { return f.record("post") }
func (f *fakeExec) Delete(_ context.Context, a []string) error { return f.record("delete", a...) }
func (f *fakeExec) Upload(_ context.Context, a []string) error { return f.record("upload", a...) }

func silenceREPL(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				printed = append(printed, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}

func TestRunREPL_Dispatch(t *testing.T) {
	silenceREPL(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"",
		"l 5 10",
		"show abc",
		"post",
		"upload cat.png",
		"delete abc",
		"me",
		"logout",
		"exit",
		"me",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(input))

	assert.Equal(t, []string{
		"login", "list 5 10", "show abc", "post", "upload cat.png", "delete abc", "me", "logout",
	}, exec.calls)
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	printed := silenceREPL(t)

	input := strings.NewReader("show\ndelete\nupload\nfrobnicate\nquit\n")
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "(alice)" }, bufio.NewReader(input))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *printed, "Usage: show <id>")
	assert.Contains(t, *printed, "Usage: delete <id>")
	assert.Contains(t, *printed, "Usage: upload <file>")
	assert.Contains(t, *printed, "Unknown command:")
	assert.Contains(t, *printed, "pb (alice)> ")
	assert.Equal(t, "Bye!", (*printed)[len(*printed)-1])
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	silenceREPL(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("register"))
	assert.Equal(t, []string{"register"}, exec.calls)
}
