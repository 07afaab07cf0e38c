// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"moon-dst-cli/internal/config"
	"moon-dst-cli/internal/discovery"
	"moon-dst-cli/internal/ignore"
	"moon-dst-cli/internal/issue"
)

type (
	// globalFlags are the persistent flags shared by every subcommand.
	globalFlags struct {
		configPath       string
		root             string
		ignores          []string
		noDefaultIgnore  bool
		respectGitignore bool
		jobs             int
		dryRun           bool
		verbose          bool
	}

	// session is the resolved, immutable input of one subcommand run.
	session struct {
		cfg     *config.Config
		cfgPath string
		flags   *pflag.FlagSet

		root             string
		ignore           *ignore.Set
		respectGitignore bool
		jobs             int
		dryRun           bool
		verbose          bool

		tool   Tool
		logger *slog.Logger
	}
)

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/moon-dst/config.cue, then ./moon-dst.cue)")
	fs.StringVar(&g.root, "root", ".", "root directory to search from")
	fs.StringArrayVarP(&g.ignores, "ignore", "i", nil, "directory name to ignore (repeatable)")
	fs.BoolVar(&g.noDefaultIgnore, "no-default-ignore", false, "disable the default ignore names")
	fs.BoolVar(&g.respectGitignore, "respect-gitignore", false, "also skip entries matched by the root .gitignore")
	fs.IntVarP(&g.jobs, "jobs", "j", 0, "number of parallel jobs (default: CPU cores / 2)")
	fs.BoolVar(&g.dryRun, "dry-run", false, "show commands without executing")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
}

// newSession loads configuration, applies flag overrides, installs the
// process logger and verifies that moon can be run.
func (a *App) newSession(cmd *cobra.Command, g *globalFlags) (*session, error) {
	ctx := cmd.Context()

	loaded, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: g.configPath})
	if err != nil {
		return nil, &guidedError{id: issue.ConfigLoadFailedId, err: err}
	}
	cfg := loaded.Config
	flags := cmd.Flags()

	s := &session{
		cfg:              cfg,
		cfgPath:          loaded.Path,
		flags:            flags,
		root:             g.root,
		jobs:             pick(flags, "jobs", g.jobs, cfg.Jobs),
		dryRun:           g.dryRun,
		verbose:          pick(flags, "verbose", g.verbose, cfg.Verbose),
		respectGitignore: pick(flags, "respect-gitignore", g.respectGitignore, cfg.RespectGitignore),
	}
	if s.jobs < 0 {
		return nil, fmt.Errorf("--jobs must be >= 0, got %d", s.jobs)
	}
	s.ignore = ignore.NewSet(
		pick(flags, "ignore", g.ignores, cfg.Ignore),
		!pick(flags, "no-default-ignore", g.noDefaultIgnore, cfg.NoDefaultIgnore),
	)

	a.verbose = s.verbose
	s.logger = newLogger(a.stderr, s.verbose)
	slog.SetDefault(s.logger)
	if loaded.Path != "" {
		s.logger.Debug("loaded configuration", "path", loaded.Path)
	}

	s.tool = a.NewTool(cfg.MoonBin)
	if err := s.tool.CheckAvailable(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// discover runs discovery and renders its diagnostics as warnings.
func (a *App) discover(ctx context.Context, s *session) (discovery.Result, error) {
	d := discovery.New(s.root,
		discovery.WithIgnore(s.ignore),
		discovery.WithGitignore(s.respectGitignore),
		discovery.WithVerbose(s.verbose, a.stdout),
	)
	result, err := d.Discover(ctx)
	if err != nil {
		return discovery.Result{}, wrapDiscoveryError(err)
	}
	a.renderDiagnostics(result.Diagnostics)
	return result, nil
}

// wrapDiscoveryError adds remediation hints. The wrapped errors already name
// the offending path.
func wrapDiscoveryError(err error) error {
	ctx := issue.NewErrorContext()
	if errors.Is(err, discovery.ErrBadRoot) {
		return ctx.WithOperation("resolve root directory").
			WithSuggestion("Check that --root points to an existing directory").
			Wrap(err).
			BuildError()
	}
	return ctx.WithOperation("discover manifests").
		WithSuggestion("Check the permissions of the reported path").
		WithSuggestion("Skip unreadable directories with --ignore NAME").
		Wrap(err).
		BuildError()
}

// pick returns the flag value when the flag was set explicitly and the
// configured value otherwise.
func pick[T any](flags *pflag.FlagSet, name string, flagValue, configured T) T {
	if flags.Changed(name) {
		return flagValue
	}
	return configured
}
