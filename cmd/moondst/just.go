// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"moon-dst-cli/internal/justfile"
)

func newJustCommand(app *App, g *globalFlags) *cobra.Command {
	mode := justfile.ModeCreate

	justCmd := &cobra.Command{
		Use:   "just",
		Short: "Add a justfile to repositories",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, g)
			if err != nil {
				return err
			}
			result, err := app.discover(cmd.Context(), s)
			if err != nil {
				return err
			}
			if len(result.Repositories) == 0 {
				fmt.Fprintln(app.stdout, "No moon.mod.json files found.")
				return nil
			}

			installer := &justfile.Installer{
				DryRun:  s.dryRun,
				Verbose: s.verbose,
				Out:     app.stdout,
				Logger:  s.logger,
			}
			effective := pick(s.flags, "mode", mode, s.cfg.Justfile.Mode)

			created, skipped := 0, 0
			for _, repo := range result.Repositories {
				ok, err := installer.Install(repo.Root, effective)
				switch {
				case err != nil:
					fmt.Fprintf(app.stderr, "[%s] %s %v\n", repo.Root, ErrorStyle.Render("Error:"), err)
				case ok:
					created++
				default:
					skipped++
				}
			}

			fmt.Fprintln(app.stdout)
			fmt.Fprintf(app.stdout, "Summary: %d created, %d skipped\n", created, skipped)
			return nil
		}),
	}
	justCmd.Flags().Var(&mode, "mode", "justfile handling mode (skip, create, merge)")

	return justCmd
}
