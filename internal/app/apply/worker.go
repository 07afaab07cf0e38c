// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"context"
	"fmt"

	"moon-dst-cli/internal/discovery"
	"moon-dst-cli/internal/moon"
)

// ProcessRepo runs the full plan for one repository. It never returns early
// because of fail-fast; once started, the plan always completes.
func (o *Orchestrator) ProcessRepo(ctx context.Context, repo discovery.Repository) RepoResult {
	res := RepoResult{Root: repo.Root, Success: true}

	if !o.opts.SkipUpdate {
		if err := o.run(ctx, repo.Root, "update"); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("moon update failed: %v", err))
			res.Success = false
			return res
		}
		if o.opts.Verbose && !o.opts.DryRun {
			o.out.Printf("[%s] moon update succeeded", repo.Root)
		}
	}

	deps := repo.DependencyNames(o.opts.Packages)
	updated := make(map[string]struct{}, len(deps))
	for range o.opts.repeat() {
		for _, dep := range deps {
			if err := o.run(ctx, repo.Root, "add", dep); err != nil {
				res.FailedPackages = append(res.FailedPackages, Failure{Package: dep, Message: err.Error()})
				res.Success = false
				continue
			}
			if o.opts.DryRun {
				continue
			}
			if _, seen := updated[dep]; !seen {
				updated[dep] = struct{}{}
				res.UpdatedPackages = append(res.UpdatedPackages, dep)
			}
		}
	}

	if o.opts.WriteJustfile {
		if _, err := o.installer.Install(repo.Root, o.opts.JustfileMode); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("justfile handling failed: %v", err))
		}
	}

	return res
}

// run invokes moon in dir, or only prints the command under dry-run.
func (o *Orchestrator) run(ctx context.Context, dir string, args ...string) error {
	if o.opts.DryRun || o.opts.Verbose {
		o.out.Printf("[%s] %s", dir, moon.FormatCommand(args...))
	}
	if o.opts.DryRun {
		return nil
	}
	_, err := o.runner.Run(ctx, dir, args...)
	return err
}
