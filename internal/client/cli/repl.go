package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Post(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit". Command
// prompts share reader, so no input is buffered away from them.
//
//	Always:
//	  - help, list [limit] [offset], show <id>, exit | quit
//	Not logged in:
//	  - register, login
//	Logged in:
//	  - me, post, delete <id>, upload <file>, logout
//
// Handlers report their own errors; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pb %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, show, post, delete, upload, me, logout, exit")
			} else {
				printlnFn("Available commands: (l)ist, show, register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "l", "list":
			_ = a.List(ctx, args)

		case "show":
			if len(args) == 0 {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, args)

		case "post":
			_ = a.Post(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args)

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <file>")
				continue
			}
			_ = a.Upload(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
