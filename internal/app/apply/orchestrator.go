// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"moon-dst-cli/internal/discovery"
	"moon-dst-cli/internal/justfile"
	"moon-dst-cli/internal/moon"
)

type (
	// Orchestrator executes the apply plan over a set of repositories.
	Orchestrator struct {
		runner    moon.Runner
		opts      Options
		out       *lockedWriter
		pool      *Pool
		logger    *slog.Logger
		installer *justfile.Installer
	}

	// OrchestratorOption configures an Orchestrator.
	OrchestratorOption func(*Orchestrator)
)

// WithOutput sets the progress output stream (default os.Stdout).
func WithOutput(w io.Writer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.out = newLockedWriter(w)
	}
}

// WithPool sets the worker pool (default DefaultPool()).
func WithPool(p *Pool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pool = p
	}
}

// WithLogger sets the diagnostics logger (default slog.Default()).
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// NewOrchestrator creates an Orchestrator that runs moon through runner.
func NewOrchestrator(runner moon.Runner, opts Options, options ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		runner: runner,
		opts:   opts,
		out:    newLockedWriter(os.Stdout),
		pool:   DefaultPool(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(o)
	}
	o.installer = &justfile.Installer{
		DryRun:  opts.DryRun,
		Verbose: opts.Verbose,
		Out:     o.out,
		Logger:  o.logger,
	}
	return o
}

// Run processes repos on the worker pool and returns the sorted report.
// Under fail-fast, a failed result stops further dispatch. Cancelling ctx
// also stops dispatch only: a started repository runs its plan, moon
// processes included, to completion so every reported result is complete.
func (o *Orchestrator) Run(ctx context.Context, repos []discovery.Repository) Report {
	var (
		stop    atomic.Bool
		mu      sync.Mutex
		results = make([]RepoResult, 0, len(repos))
	)

	g := new(errgroup.Group)
	g.SetLimit(o.pool.Size())

	// Workers must not observe cancellation.
	workCtx := context.WithoutCancel(ctx)

	interrupted := false
	for _, repo := range repos {
		if o.opts.FailFast && stop.Load() {
			break
		}
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		g.Go(func() error {
			if (o.opts.FailFast && stop.Load()) || ctx.Err() != nil {
				return nil
			}
			res := o.ProcessRepo(workCtx, repo)
			if o.opts.FailFast && !res.Success {
				stop.Store(true)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		interrupted = true
	}
	if len(results) < len(repos) {
		o.logger.Debug("repositories skipped", "ran", len(results), "total", len(repos), "fail_fast", stop.Load())
	}

	slices.SortFunc(results, func(a, b RepoResult) int {
		return discovery.ComparePaths(a.Root, b.Root)
	})
	return Report{
		Results:     results,
		Total:       len(repos),
		FailFast:    o.opts.FailFast,
		Interrupted: interrupted,
	}
}
