// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "moon-dst",
		Short: "MoonBit dependency updater (moon dust)",
		Long: TitleStyle.Render("moon-dst") + SubtitleStyle.Render(" - MoonBit dependency updater") + `

moon-dst finds every moon.mod.json below a directory, groups the manifests
by their enclosing git repository and refreshes dependencies in parallel by
running 'moon update' and 'moon add' in each repository.

` + SubtitleStyle.Render("Examples:") + `
  moon-dst scan                    List repositories and their dependencies
  moon-dst scan --json             The same, as JSON
  moon-dst apply --dry-run         Show the moon commands that would run
  moon-dst apply -p moonbitlang    Only re-add matching dependencies
  moon-dst just --mode create      Add a justfile to repositories without one`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	g.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newScanCommand(app, g))
	rootCmd.AddCommand(newApplyCommand(app, g))
	rootCmd.AddCommand(newJustCommand(app, g))
	rootCmd.AddCommand(newConfigCommand(app, g))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with the process arguments and returns the exit code.
// It is called by main.main().
func Execute() int {
	return execute(context.Background(), NewApp(Dependencies{}), os.Args[1:])
}

func execute(ctx context.Context, app *App, args []string) int {
	app.exitCode = 0
	rootCmd := newRootCommand(app)
	rootCmd.SetArgs(args)

	// fang overrides rootCmd.Version, so the version is passed as an option.
	if err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return app.exitCode
}
