// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"moon-dst-cli/internal/app/apply"
	"moon-dst-cli/internal/config"
	"moon-dst-cli/internal/discovery"
	"moon-dst-cli/internal/issue"
	"moon-dst-cli/internal/moon"
)

type (
	// Tool is the moon adapter as seen by the CLI: a runner plus the
	// availability probe.
	Tool interface {
		moon.Runner
		CheckAvailable(ctx context.Context) error
	}

	// ToolFactory builds the moon adapter once the configured binary is known.
	// An empty moonBin means PATH/HOME resolution.
	ToolFactory func(moonBin string) Tool

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer.
	App struct {
		Config  config.Provider
		NewTool ToolFactory
		Pool    *apply.Pool
		stdout  io.Writer
		stderr  io.Writer

		// exitCode is the status reported by a command that already rendered
		// its own failure.
		exitCode int
		verbose  bool
	}

	// guidedError attaches a guidance page to an error.
	guidedError struct {
		id  issue.Id
		err error
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config  config.Provider
		NewTool ToolFactory
		Pool    *apply.Pool
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:  deps.Config,
		NewTool: deps.NewTool,
		Pool:    deps.Pool,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.NewTool == nil {
		app.NewTool = defaultToolFactory
	}
	if app.Pool == nil {
		app.Pool = apply.DefaultPool()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func defaultToolFactory(moonBin string) Tool {
	if moonBin != "" {
		return moon.NewTool(moon.WithBinary(moonBin))
	}
	return moon.NewTool()
}

// newLogger returns a slog logger backed by a charm log handler on w.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Level:           level,
	})
	return slog.New(handler)
}

// runE adapts a command handler so that failures are rendered by the App
// instead of fang. An *ExitError without a cause only sets the exit code.
func (a *App) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}

		code := 1
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
			if exitErr.Err == nil {
				a.exitCode = code
				return nil
			}
			err = exitErr.Err
		}
		a.renderError(err)
		a.exitCode = code
		return nil
	}
}

// renderError writes err to stderr. A missing moon toolchain additionally
// shows the guidance page when stderr is a terminal.
func (a *App) renderError(err error) {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, a.verbose))

	if id, ok := issueFor(err); ok && a.stderrIsTerminal() {
		if rendered, renderErr := issue.Get(id).Render("auto"); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
}

func (e *guidedError) Error() string { return e.err.Error() }

func (e *guidedError) Unwrap() error { return e.err }

// issueFor maps well-known failures to a guidance page.
func issueFor(err error) (issue.Id, bool) {
	var guided *guidedError
	if errors.As(err, &guided) {
		return guided.id, true
	}
	switch {
	case errors.Is(err, moon.ErrToolUnavailable):
		return issue.ToolNotFoundId, true
	case errors.Is(err, discovery.ErrBadRoot):
		return issue.RootNotFoundId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	case errors.Is(err, os.ErrPermission):
		return issue.PermissionDeniedId, true
	default:
		return 0, false
	}
}

func (a *App) stderrIsTerminal() bool {
	f, ok := a.stderr.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors include their suggestions; verbose adds the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
