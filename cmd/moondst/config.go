// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"moon-dst-cli/internal/config"
	"moon-dst-cli/internal/issue"
)

// newConfigCommand creates the `moon-dst config` command tree. These commands
// do not require the moon toolchain.
func newConfigCommand(app *App, g *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect moon-dst configuration",
		Long: `Inspect moon-dst configuration.

Configuration is read from the first of:
  - the file given with --config
  - Linux: $XDG_CONFIG_HOME/moon-dst/config.cue (~/.config/moon-dst/config.cue)
  - macOS: ~/Library/Application Support/moon-dst/config.cue
  - Windows: %APPDATA%\moon-dst\config.cue
  - ./moon-dst.cue

Environment variables prefixed with MOONDST_ override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: g.configPath})
			if err != nil {
				return &guidedError{id: issue.ConfigLoadFailedId, err: err}
			}
			source := "(defaults)"
			if loaded.Path != "" {
				source = loaded.Path
			}
			fmt.Fprintf(app.stdout, "// source: %s\n", source)
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		}),
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the user configuration file path",
		Args:  cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		}),
	})

	return cfgCmd
}
