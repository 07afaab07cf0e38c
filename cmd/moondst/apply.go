// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"moon-dst-cli/internal/app/apply"
	"moon-dst-cli/internal/justfile"
)

type applyFlags struct {
	skipUpdate   bool
	repeat       int
	packages     []string
	failFast     bool
	noJustfile   bool
	justfileMode justfile.Mode
}

func newApplyCommand(app *App, g *globalFlags) *cobra.Command {
	f := &applyFlags{justfileMode: justfile.ModeCreate}

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply dependency updates (moon update + moon add)",
		Long: `Apply dependency updates across every discovered repository.

Each repository runs 'moon update', then 'moon add <dep>' for every distinct
dependency of its manifests, then installs a justfile. Repositories are
processed in parallel (--jobs); --fail-fast stops starting new repositories
after the first failure.`,
		Args: cobra.NoArgs,
		RunE: app.runE(func(cmd *cobra.Command, _ []string) error {
			s, err := app.newSession(cmd, g)
			if err != nil {
				return err
			}
			opts, err := f.options(s)
			if err != nil {
				return err
			}
			return runApply(cmd, app, s, opts)
		}),
	}

	fs := applyCmd.Flags()
	fs.BoolVar(&f.skipUpdate, "skip-update", false, "skip the initial moon update")
	fs.IntVar(&f.repeat, "repeat", 1, "number of times to repeat moon add")
	fs.StringArrayVarP(&f.packages, "package", "p", nil, "only update dependencies containing this substring (repeatable)")
	fs.BoolVar(&f.failFast, "fail-fast", false, "stop starting repositories after the first failure")
	fs.BoolVar(&f.noJustfile, "no-justfile", false, "skip adding a justfile to repositories")
	fs.Var(&f.justfileMode, "justfile-mode", "justfile handling mode (skip, create, merge)")

	return applyCmd
}

// options merges apply flags over the apply/justfile configuration sections.
func (f *applyFlags) options(s *session) (apply.Options, error) {
	cfg := s.cfg
	opts := apply.Options{
		SkipUpdate:    pick(s.flags, "skip-update", f.skipUpdate, cfg.Apply.SkipUpdate),
		Repeat:        pick(s.flags, "repeat", f.repeat, cfg.Apply.Repeat),
		Packages:      f.packages,
		FailFast:      pick(s.flags, "fail-fast", f.failFast, cfg.Apply.FailFast),
		WriteJustfile: !pick(s.flags, "no-justfile", f.noJustfile, cfg.Apply.NoJustfile),
		JustfileMode:  pick(s.flags, "justfile-mode", f.justfileMode, cfg.Justfile.Mode),
		DryRun:        s.dryRun,
		Verbose:       s.verbose,
	}
	if err := opts.Validate(); err != nil {
		return apply.Options{}, err
	}
	return opts, nil
}

func runApply(cmd *cobra.Command, app *App, s *session, opts apply.Options) error {
	ctx := cmd.Context()

	result, err := app.discover(ctx, s)
	if err != nil {
		return err
	}
	if len(result.Repositories) == 0 {
		fmt.Fprintln(app.stdout, "No moon.mod.json files found.")
		return nil
	}

	jobs := app.Pool.Init(s.jobs)
	s.logger.Debug("applying", "repos", len(result.Repositories), "jobs", jobs, "dry_run", opts.DryRun)

	orchestrator := apply.NewOrchestrator(s.tool, opts,
		apply.WithOutput(app.stdout),
		apply.WithPool(app.Pool),
		apply.WithLogger(s.logger),
	)
	report := orchestrator.Run(ctx, result.Repositories)

	renderReport(app.stdout, report)
	if !report.OK() {
		return &ExitError{Code: 1}
	}
	return nil
}

// renderReport prints the results section and summary line.
func renderReport(w io.Writer, report apply.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, TitleStyle.Render("=== Results ==="))
	fmt.Fprintln(w)

	for _, res := range report.Results {
		status := SuccessStyle.Render("[OK]")
		if !res.Success {
			status = ErrorStyle.Render("[FAILED]")
		}
		fmt.Fprintf(w, "%s %s\n", status, res.Root)

		if n := len(res.UpdatedPackages); n > 0 {
			fmt.Fprintf(w, "  Updated: %d packages\n", n)
		}
		if len(res.FailedPackages) > 0 {
			fmt.Fprintln(w, "  Failed packages:")
			for _, failure := range res.FailedPackages {
				fmt.Fprintf(w, "    - %s: %s\n", failure.Package, failure.Message)
			}
		}
		for _, msg := range res.Errors {
			fmt.Fprintf(w, "  Error: %s\n", msg)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d/%d repos succeeded\n", report.Succeeded(), len(report.Results))
}
