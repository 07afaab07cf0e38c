// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"moon-dst-cli/internal/discovery"
)

type (
	scanOutput struct {
		Repos []repoOutput `json:"repos"`
	}

	repoOutput struct {
		RepoRoot string           `json:"repo_root"`
		MoonMods []manifestOutput `json:"moon_mods"`
	}

	manifestOutput struct {
		Path string   `json:"path"`
		Deps []string `json:"deps"`
	}
)

func newScanCommand(app *App, g *globalFlags) *cobra.Command {
	var jsonOutput bool

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for moon.mod.json files and list dependencies",
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
			if jsonOutput {
				return renderScanJSON(app.stdout, result)
			}
			renderScan(app.stdout, result)
			return nil
		}),
	}
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return scanCmd
}

// renderScan prints the human-readable listing and summary.
func renderScan(w io.Writer, result discovery.Result) {
	for _, repo := range result.Repositories {
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Repository:"), PathStyle.Render(repo.Root))
		for _, m := range repo.Manifests {
			fmt.Fprintf(w, "  %s\n", repo.RelPath(m.Path))
			for _, dep := range m.Deps {
				fmt.Fprintf(w, "    - %s\n", dep)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Summary: %d repos, %d moon.mod.json files, %d dependencies\n",
		len(result.Repositories), result.TotalManifests(), result.TotalDeps())
}

// renderScanJSON prints the scan result as two-space indented JSON.
func renderScanJSON(w io.Writer, result discovery.Result) error {
	out := scanOutput{Repos: make([]repoOutput, 0, len(result.Repositories))}
	for _, repo := range result.Repositories {
		ro := repoOutput{RepoRoot: repo.Root, MoonMods: make([]manifestOutput, 0, len(repo.Manifests))}
		for _, m := range repo.Manifests {
			deps := m.Deps
			if deps == nil {
				deps = []string{}
			}
			ro.MoonMods = append(ro.MoonMods, manifestOutput{Path: repo.RelPath(m.Path), Deps: deps})
		}
		out.Repos = append(out.Repos, ro)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scan output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
