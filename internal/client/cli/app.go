package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/postboard/internal/client/api"
	"github.com/dmitrijs2005/postboard/internal/client/config"
)

type App struct {
	config *config.Config
	client *api.Client
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds a client for cfg that reads commands from in and writes to out.
func NewApp(cfg *config.Config, in io.Reader, out io.Writer) *App {
	return &App{
		config: cfg,
		client: api.New(cfg.ServerURL, cfg.RequestTimeout),
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Client exposes the underlying API client for one-shot commands.
func (a *App) Client() *api.Client { return a.client }

func (a *App) isLoggedIn() bool {
	_, ok := a.client.Session()
	return ok
}

func (a *App) getStatus() string {
	if s, ok := a.client.Session(); ok {
		return fmt.Sprintf("(%s)", s.User.UserName)
	}
	return ""
}

// Run starts the REPL and ends the session on exit.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "postboard CLI, server %s (type 'help' for commands)\n", a.config.ServerURL)
	if err := a.client.Health(ctx); err != nil {
		fmt.Fprintf(a.out, "warning: server is not reachable: %v\n", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)

	if a.isLoggedIn() {
		_ = a.client.Logout(ctx)
	}
}
