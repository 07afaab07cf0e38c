// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"errors"
	"fmt"

	"moon-dst-cli/internal/justfile"
)

// ErrInvalidRepeat is returned by Options.Validate when Repeat is below one.
var ErrInvalidRepeat = errors.New("repeat must be at least 1")

type (
	// Options are the immutable per-run inputs of the apply plan.
	Options struct {
		// SkipUpdate skips the `moon update` step.
		SkipUpdate bool
		// Repeat is how many times the add loop runs. Validate requires at
		// least one.
		Repeat int
		// Packages restricts the add loop to dependency names containing at
		// least one of these substrings. Empty means every dependency.
		Packages []string
		// FailFast stops dispatching new repositories after the first failure.
		FailFast bool
		// WriteJustfile enables the justfile step.
		WriteJustfile bool
		// JustfileMode selects the justfile behavior when WriteJustfile is set.
		JustfileMode justfile.Mode
		// DryRun replaces every external side effect with a progress line.
		DryRun bool
		// Verbose prints every command as it is run.
		Verbose bool
	}

	// Failure records a dependency whose `moon add` failed.
	Failure struct {
		Package string `json:"package"`
		Message string `json:"message"`
	}

	// RepoResult is the outcome of one fully completed repository plan.
	RepoResult struct {
		Root            string    `json:"repo_root"`
		Success         bool      `json:"success"`
		UpdatedPackages []string  `json:"updated_packages"`
		FailedPackages  []Failure `json:"failed_packages"`
		Errors          []string  `json:"errors"`
	}

	// Report collects the results of a Run, sorted by repository root.
	Report struct {
		Results []RepoResult
		// Total is the number of repositories that were scheduled.
		Total int
		// FailFast mirrors Options.FailFast for the run.
		FailFast bool
		// Interrupted is set when the context was cancelled before every
		// repository was dispatched.
		Interrupted bool
	}
)

// Validate reports option combinations that cannot be run.
func (o Options) Validate() error {
	if o.Repeat < 1 {
		return fmt.Errorf("%w (got %d)", ErrInvalidRepeat, o.Repeat)
	}
	if o.JustfileMode != "" && !o.JustfileMode.IsValid() {
		return fmt.Errorf("%w: %q", justfile.ErrInvalidMode, string(o.JustfileMode))
	}
	return nil
}

// repeat guards Options that were never validated.
func (o Options) repeat() int {
	return max(1, o.Repeat)
}

// Succeeded returns the number of successful repository results.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// OK reports overall success: every result succeeded and, under fail-fast,
// every scheduled repository produced a result.
func (r Report) OK() bool {
	if r.Interrupted {
		return false
	}
	if r.Succeeded() != len(r.Results) {
		return false
	}
	if r.FailFast && len(r.Results) != r.Total {
		return false
	}
	return true
}
