// Package main implements czar, a command-line project clock and task list.
//
// Directories are registered as projects; one project at a time can be
// running. Each project keeps an append-only log of start, stop, task, note
// and done events, and the open task list is rebuilt from that log.
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
	"github.com/fyrsmithlabs/czar/internal/project"
	"github.com/fyrsmithlabs/czar/internal/render"
	"github.com/fyrsmithlabs/czar/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK        = 0
	exitUserError = 1
	exitFatal     = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one czar invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(expandAliases(args))

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	render.New(stdout, stderr).Error(err)
	return exitCode(err)
}

// configError marks failures to assemble configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode maps integrity and configuration failures to exitFatal and
// everything else to exitUserError.
func exitCode(err error) int {
	var cfgErr *configError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &cfgErr),
		errors.Is(err, project.ErrAmbiguousRegistry),
		errors.Is(err, store.ErrCorrupt),
		errors.Is(err, eventlog.ErrInvalidEvent):
		return exitFatal
	default:
		return exitUserError
	}
}
