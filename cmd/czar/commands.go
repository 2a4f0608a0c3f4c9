package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/czar/internal/config"
	"github.com/fyrsmithlabs/czar/internal/logging"
	"github.com/fyrsmithlabs/czar/internal/project"
	"github.com/fyrsmithlabs/czar/internal/render"
	"github.com/fyrsmithlabs/czar/internal/tasks"
)

// runFunc is the body of a command once a session is open.
type runFunc func(ctx context.Context, s *session, r *render.Renderer, dir string, args []string) error

// newRootCmd builds the command tree. Every command opens its own session.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:   "czar",
		Short: "Track time and tasks per project directory",
		Long: `czar registers directories as projects, clocks time against one running
project at a time and keeps a numbered list of open tasks for each project.

Run without a command to show the current directory's project and the
running project.

Examples:
  # Register the current directory, or the enclosing git worktree
  czar add
  czar add --git

  # Clock in and out
  czar start reviewing the parser
  czar stop

  # Manage tasks
  czar task fix the flaky test
  czar note 1 only fails on CI
  czar done 1 root cause was a shared temp dir
  czar list`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.dir, "dir", "", "directory to act on (default: current directory)")
	flags.StringVar(&o.dataDir, "data-dir", "", "data directory (default: ~/.project-czar)")
	flags.StringVar(&o.configPath, "config", "", "config file (default: ~/.config/czar/config.yaml)")
	flags.StringVar(&o.logLevel, "log-level", "", "diagnostic log level: trace, debug, info, warn, error")

	infoCmd := &cobra.Command{
		Use:     "info",
		Aliases: []string{"i"},
		Short:   "Show the directory's project and the running project",
		Args:    cobra.NoArgs,
		RunE:    withSession(o, runInfo),
	}
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			_ = cmd.Help()
			return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return infoCmd.RunE(cmd, args)
	}

	addCmd := &cobra.Command{
		Use:   "add [directory]",
		Short: "Register a directory as a project",
		Long: `Register a directory as a project. Registering a directory that is
already inside a project reports the existing project.

Examples:
  # Register the current directory
  czar add

  # Register the root of the enclosing git worktree
  czar add --git

  # Register another directory
  czar add ~/src/parser`,
		Args: cobra.MaximumNArgs(1),
	}
	useGit := addCmd.Flags().Bool("git", false, "register the enclosing git worktree root")
	addCmd.RunE = withSession(o, func(ctx context.Context, s *session, r *render.Renderer, dir string, args []string) error {
		return runAdd(ctx, s, r, dir, args, *useGit)
	})

	startCmd := &cobra.Command{
		Use:     "start [text...]",
		Aliases: []string{"+"},
		Short:   "Start the clock for the directory's project",
		Long: `Start the clock for the project containing the directory. Only one
project runs at a time; stop the running project first.

Text that starts with a dash must follow "--" so it is not read as a flag:
  czar start -- -x flag cleanup`,
		RunE: withSession(o, runStart),
	}

	stopCmd := &cobra.Command{
		Use:     "stop [text...]",
		Aliases: []string{"-"},
		Short:   "Stop the running project",
		Long: `Stop the running project, optionally with a closing remark.

Text that starts with a dash must follow "--" so it is not read as a flag:
  czar stop -- --verbose was too noisy`,
		RunE: withSession(o, runStop),
	}

	taskCmd := &cobra.Command{
		Use:     "task <text...>",
		Aliases: []string{"t"},
		Short:   "Add an open task",
		Long: `Add an open task to the directory's project. Tasks are numbered from 1
in the order they were added.

Text that starts with a dash must follow "--" so it is not read as a flag:
  czar task -- -5 degrees outside, check the heating`,
		Args: cobra.MinimumNArgs(1),
		RunE: withSession(o, runTask),
	}

	noteCmd := &cobra.Command{
		Use:     "note <number> <text...>",
		Aliases: []string{"n"},
		Short:   "Attach a note to an open task",
		Long: `Attach a note to the open task with the given number. Everything after
the number is note text, including words that start with a dash:
  czar note 1 -v shows the retry`,
		Args: cobra.MinimumNArgs(2),
		RunE: withSession(o, runNote),
	}

	doneCmd := &cobra.Command{
		Use:     "done <number> [text...]",
		Aliases: []string{"d"},
		Short:   "Mark an open task done",
		Long: `Mark the open task with the given number done, optionally with a final
note. The remaining tasks are renumbered.

Everything after the number is note text, including words that start
with a dash:
  czar done 1 -race is clean now`,
		Args: cobra.MinimumNArgs(1),
		RunE: withSession(o, runDone),
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List open tasks with their notes",
		Args:    cobra.NoArgs,
		RunE:    withSession(o, runList),
	}

	pendingCmd := &cobra.Command{
		Use:     "pending",
		Aliases: []string{"p"},
		Short:   "List open tasks of the running project",
		Args:    cobra.NoArgs,
		RunE:    withSession(o, runPending),
	}

	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List registered projects",
		Args:  cobra.NoArgs,
		RunE:  withSession(o, runProjects),
	}

	// Free text may contain words that look like flags.
	for _, c := range []*cobra.Command{startCmd, stopCmd, taskCmd, noteCmd, doneCmd} {
		c.Flags().SetInterspersed(false)
	}

	rootCmd.AddCommand(infoCmd, addCmd, startCmd, stopCmd, taskCmd, noteCmd, doneCmd,
		listCmd, pendingCmd, projectsCmd)
	return rootCmd
}

// withSession opens a session around fn and records a span for the command.
func withSession(o *options, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		name := cmd.Name()
		if !cmd.HasParent() {
			name = "info"
		}
		ctx := logging.WithCommand(cmd.Context(), name)

		dir, err := o.workDir()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}

		s, err := openSession(ctx, o, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		ctx = logging.WithLogger(ctx, s.logger)
		ctx, span := s.tel.Tracer(instrumentationName).Start(ctx, "czar."+name,
			trace.WithAttributes(
				attribute.String("command", name),
				attribute.String("directory", dir),
			))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()

		return fn(ctx, s, render.New(cmd.OutOrStdout(), cmd.ErrOrStderr()), dir, args)
	}
}

func runInfo(ctx context.Context, s *session, r *render.Renderer, dir string, _ []string) error {
	st, err := s.tracker.Info(ctx, dir)
	if err != nil {
		return err
	}
	r.Info(st)
	return nil
}

func runAdd(ctx context.Context, s *session, r *render.Renderer, dir string, args []string, useGit bool) error {
	logger := logging.FromContext(ctx)

	if len(args) == 1 {
		dir = resolveDir(dir, args[0])
	}
	if useGit {
		root, err := project.GitRoot(dir)
		if err != nil {
			return err
		}
		logger.Debug(ctx, "resolved git worktree root",
			zap.String("directory", dir),
			zap.String("root", root))
		dir = root
	}
	logger.Debug(ctx, "registering directory", zap.String("directory", dir))

	reg, err := s.tracker.Add(ctx, dir)
	if err != nil {
		return err
	}
	r.Registered(reg)
	return nil
}

func runStart(ctx context.Context, s *session, r *render.Renderer, dir string, args []string) error {
	tr, err := s.tracker.Start(ctx, dir, args)
	if err != nil {
		return err
	}
	r.Started(tr)
	return nil
}

func runStop(ctx context.Context, s *session, r *render.Renderer, _ string, args []string) error {
	tr, err := s.tracker.Stop(ctx, args)
	if err != nil {
		return err
	}
	r.Stopped(tr)
	return nil
}

func runTask(ctx context.Context, s *session, r *render.Renderer, dir string, args []string) error {
	c, err := s.tracker.AddTask(ctx, dir, args)
	if err != nil {
		return err
	}
	r.TaskAdded(c)
	return nil
}

func runNote(ctx context.Context, s *session, r *render.Renderer, dir string, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	c, err := s.tracker.AddNote(ctx, dir, index, args[1:])
	if err != nil {
		return err
	}
	r.NoteAdded(c)
	return nil
}

func runDone(ctx context.Context, s *session, r *render.Renderer, dir string, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	c, err := s.tracker.MarkDone(ctx, dir, index, args[1:])
	if err != nil {
		return err
	}
	r.Done(c)
	return nil
}

func runList(ctx context.Context, s *session, r *render.Renderer, dir string, _ []string) error {
	l, err := s.tracker.List(ctx, dir)
	if err != nil {
		return err
	}
	r.Tasks(l)
	return nil
}

func runPending(ctx context.Context, s *session, r *render.Renderer, _ string, _ []string) error {
	l, err := s.tracker.Pending(ctx)
	if err != nil {
		return err
	}
	r.Tasks(l)
	return nil
}

func runProjects(ctx context.Context, s *session, r *render.Renderer, _ string, _ []string) error {
	list, err := s.tracker.Projects(ctx)
	if err != nil {
		return err
	}
	r.Projects(list)
	return nil
}

// resolveDir resolves path against base unless it is already absolute.
func resolveDir(base, path string) string {
	path = config.ExpandHome(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// parseIndex parses a 1-based task number as typed by the user.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(s, "."))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a task number", tasks.ErrBadIndex, s)
	}
	return n, nil
}

// valueFlags are the persistent flags that consume the following argument.
var valueFlags = map[string]bool{
	"--dir":       true,
	"--data-dir":  true,
	"--config":    true,
	"--log-level": true,
}

// expandAliases rewrites a bare "-" command into "stop". The flag parser
// treats "-" as a stray flag and never resolves it as a command name.
func expandAliases(args []string) []string {
	out := append([]string(nil), args...)
	for i := 0; i < len(out); i++ {
		arg := out[i]
		switch {
		case arg == "-":
			out[i] = "stop"
			return out
		case arg == "--":
			return out
		case valueFlags[arg]:
			i++
		case strings.HasPrefix(arg, "-"):
		default:
			return out
		}
	}
	return out
}
