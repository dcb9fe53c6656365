// Command postgen is the terminal client for the content service.
//
// Usage:
//
//	postgen signup --email ada@example.com --name Ada --username ada --password secret1
//	postgen login --email ada@example.com --password secret1
//	postgen generate --prompt "Spring launch" --platforms x,linkedin
//	postgen posts
//	postgen post <id>
//	postgen delete-post <id>
//	postgen profile
//	postgen profile-update --name "Ada King"
//	postgen delete-account --yes
//	postgen whoami
//	postgen logout
//
// Settings come from POSTGEN_* environment variables and an optional .env
// file; see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sakif/postgen/internal/api"
	"github.com/sakif/postgen/internal/apperror"
	"github.com/sakif/postgen/internal/catalog"
	"github.com/sakif/postgen/internal/config"
	"github.com/sakif/postgen/internal/generation"
	"github.com/sakif/postgen/internal/keystore"
	"github.com/sakif/postgen/internal/keystore/sqlite"
	"github.com/sakif/postgen/internal/profile"
	"github.com/sakif/postgen/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run wires the client from the environment and executes one command.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	// Logs go to stderr so command output stays clean.
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if dir := filepath.Dir(cfg.StatePath); cfg.StatePath != ":memory:" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			fmt.Fprintln(stderr, "Error: creating state directory:", err)
			return 1
		}
	}
	kv, err := sqlite.New(cfg.StatePath)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer kv.Close()

	remote := api.New(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(logger))
	a, err := newApp(ctx, kv, remote, logger, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return a.exec(ctx, args, stderr)
}

// app holds the client core for one invocation.
type app struct {
	sessions *session.Store
	gen      *generation.Orchestrator
	posts    *catalog.Catalog
	profile  *profile.Service
	out      io.Writer
	loc      *time.Location
}

func newApp(ctx context.Context, kv keystore.Store, remote *api.Client, logger *slog.Logger, out io.Writer) (*app, error) {
	sessions, err := session.Open(ctx, kv, remote, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		sessions: sessions,
		gen:      generation.New(remote, sessions, logger),
		posts:    catalog.New(remote, sessions, logger),
		profile:  profile.NewService(remote, sessions, logger),
		out:      out,
		loc:      time.Local,
	}, nil
}

// exec runs args and maps the outcome to an exit code: 0 success, 1 a
// failed or refused operation, 2 bad usage.
func (a *app) exec(ctx context.Context, args []string, stderr io.Writer) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, cmd.UsageString())
		return 2
	}
	return report(stderr, err)
}

// report prints a failed command's error. A superseded response means
// newer work already ran, and a refused generation is a note rather than
// a failure banner.
func report(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apperror.ErrStale):
		return 0
	case apperror.IsSignal(err):
		fmt.Fprintln(stderr, "A generation is already in progress. Try again when it finishes.")
		return 1
	default:
		fmt.Fprintln(stderr, "Error:", userMessage(err))
		return 1
	}
}
