// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"moon-dst-cli/internal/discovery"
	"moon-dst-cli/internal/justfile"
	"moon-dst-cli/internal/moon"
	"moon-dst-cli/internal/testutil"
)

func repo(root string, deps ...[]string) discovery.Repository {
	r := discovery.Repository{Root: root}
	for i, d := range deps {
		r.Manifests = append(r.Manifests, discovery.Manifest{
			Path: filepath.Join(root, strings.Repeat("sub/", i), discovery.ManifestFileName),
			Deps: d,
		})
	}
	return r
}

func failAdd(names ...string) func(string, []string) error {
	return func(_ string, args []string) error {
		if args[0] == "add" && slices.Contains(names, args[1]) {
			return &moon.ToolFailedError{Args: args, ExitCode: 1, Stderr: "cannot resolve " + args[1] + "\n"}
		}
		return nil
	}
}

func newTestOrchestrator(runner moon.Runner, opts Options, out io.Writer) *Orchestrator {
	var pool Pool
	pool.Init(2)
	return NewOrchestrator(runner, opts,
		WithOutput(out),
		WithPool(&pool),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestProcessRepoDeduplicatesAcrossManifests(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{}
	r := repo("/w/r", []string{"a/x", "b/y"}, []string{"b/y", "c/z"})
	o := newTestOrchestrator(runner, Options{}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	want := []string{"update", "add a/x", "add b/y", "add c/z"}
	if got := runner.CommandsIn("/w/r"); !slices.Equal(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
	if !slices.Equal(res.UpdatedPackages, []string{"a/x", "b/y", "c/z"}) {
		t.Errorf("UpdatedPackages = %q", res.UpdatedPackages)
	}
}

func TestProcessRepoFilter(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{}
	r := repo("/w/r", []string{"moonbitlang/x", "mizchi/json", "moonbitlang/async"})
	o := newTestOrchestrator(runner, Options{SkipUpdate: true, Packages: []string{"moonbitlang"}}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	want := []string{"add moonbitlang/x", "add moonbitlang/async"}
	if got := runner.CommandsIn("/w/r"); !slices.Equal(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}
	if len(res.UpdatedPackages) != 2 {
		t.Errorf("UpdatedPackages = %q", res.UpdatedPackages)
	}
}

func TestProcessRepoFilterIsCaseSensitive(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{}
	r := repo("/w/r", []string{"MoonBitLang/x"})
	o := newTestOrchestrator(runner, Options{SkipUpdate: true, Packages: []string{"moonbitlang"}}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	if len(runner.Calls()) != 0 || len(res.UpdatedPackages) != 0 || !res.Success {
		t.Errorf("expected no adds and success, got calls %v result %+v", runner.Calls(), res)
	}
}

func TestProcessRepoRepeat(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{Fail: failAdd("b")}
	r := repo("/w/r", []string{"a", "b"})
	o := newTestOrchestrator(runner, Options{SkipUpdate: true, Repeat: 2}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	if got := runner.CommandsIn("/w/r"); !slices.Equal(got, []string{"add a", "add b", "add a", "add b"}) {
		t.Errorf("commands = %q", got)
	}
	if !slices.Equal(res.UpdatedPackages, []string{"a"}) {
		t.Errorf("UpdatedPackages = %q, want [a]", res.UpdatedPackages)
	}
	if len(res.FailedPackages) != 2 {
		t.Errorf("FailedPackages = %+v, want one failure per repetition", res.FailedPackages)
	}
	if res.Success {
		t.Error("a failed add must mark the repository failed")
	}
	if got := res.FailedPackages[0].Message; got != "exit code 1: cannot resolve b" {
		t.Errorf("failure message = %q", got)
	}
}

func TestProcessRepoAddFailureContinues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &testutil.FakeRunner{Fail: failAdd("a")}
	r := repo(root, []string{"a", "b"})
	o := newTestOrchestrator(runner, Options{WriteJustfile: true}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	if res.Success {
		t.Error("expected failure")
	}
	if !slices.Equal(res.UpdatedPackages, []string{"b"}) {
		t.Errorf("UpdatedPackages = %q, want [b]", res.UpdatedPackages)
	}
	if len(res.FailedPackages) != 1 || res.FailedPackages[0].Package != "a" {
		t.Errorf("FailedPackages = %+v", res.FailedPackages)
	}
	if _, err := os.Stat(filepath.Join(root, justfile.FileName)); err != nil {
		t.Errorf("justfile step should still run after add failures: %v", err)
	}
}

func TestProcessRepoUpdateFailureReturnsEarly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &testutil.FakeRunner{Fail: func(_ string, args []string) error {
		if args[0] == "update" {
			return &moon.ToolFailedError{Args: args, ExitCode: 2, Stderr: "registry unreachable"}
		}
		return nil
	}}
	r := repo(root, []string{"a"})
	o := newTestOrchestrator(runner, Options{WriteJustfile: true}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	if res.Success {
		t.Error("expected failure")
	}
	if got := runner.CommandsIn(root); !slices.Equal(got, []string{"update"}) {
		t.Errorf("commands = %q, want only update", got)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "moon update failed: exit code 2: registry unreachable" {
		t.Errorf("Errors = %q", res.Errors)
	}
	if _, err := os.Stat(filepath.Join(root, justfile.FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Error("justfile must not be written after a failed update")
	}
}

func TestProcessRepoJustfileErrorKeepsSuccess(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "missing")
	runner := &testutil.FakeRunner{}
	r := repo(root, []string{"a"})
	o := newTestOrchestrator(runner, Options{WriteJustfile: true, JustfileMode: justfile.ModeCreate}, io.Discard)

	res := o.ProcessRepo(context.Background(), r)
	if !res.Success {
		t.Errorf("justfile errors must not flip success: %+v", res)
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "justfile handling failed: ") {
		t.Errorf("Errors = %q", res.Errors)
	}
}

func TestProcessRepoDryRun(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	runner := &testutil.FakeRunner{}
	r := repo(root, []string{"a/x", "b y"})
	var out bytes.Buffer
	o := newTestOrchestrator(runner, Options{DryRun: true, WriteJustfile: true}, &out)

	res := o.ProcessRepo(context.Background(), r)
	if len(runner.Calls()) != 0 {
		t.Errorf("dry-run invoked moon: %v", runner.Calls())
	}
	if !res.Success || len(res.UpdatedPackages) != 0 {
		t.Errorf("dry-run result = %+v, want success with no updated packages", res)
	}
	want := strings.Join([]string{
		"[" + root + "] moon update",
		"[" + root + "] moon add a/x",
		"[" + root + "] moon add 'b y'",
		"[" + root + "] Creating justfile",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
	}
	if _, err := os.Stat(filepath.Join(root, justfile.FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry-run wrote a justfile")
	}
}

func TestProcessRepoVerbose(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{}
	var out bytes.Buffer
	o := newTestOrchestrator(runner, Options{Verbose: true}, &out)

	o.ProcessRepo(context.Background(), repo("/w/r", []string{"a"}))
	want := "[/w/r] moon update\n[/w/r] moon update succeeded\n[/w/r] moon add a\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunCollectsSortedResults(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{Fail: failAdd("bad")}
	repos := []discovery.Repository{
		repo("/w/c", []string{"ok"}),
		repo("/w/a", []string{"ok"}),
		repo("/w/b", []string{"bad"}),
	}
	o := newTestOrchestrator(runner, Options{}, io.Discard)

	report := o.Run(context.Background(), repos)
	var roots []string
	for _, r := range report.Results {
		roots = append(roots, r.Root)
	}
	if !slices.Equal(roots, []string{"/w/a", "/w/b", "/w/c"}) {
		t.Errorf("result roots = %q", roots)
	}
	if report.Total != 3 || report.Succeeded() != 2 || report.OK() {
		t.Errorf("report = %+v, want 2/3 and not OK", report)
	}
	if len(runner.Dirs()) != 3 {
		t.Errorf("without fail-fast every repository runs, got %q", runner.Dirs())
	}
}

func TestRunFailFastStopsDispatch(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{Fail: func(dir string, args []string) error {
		if dir == "/w/a" && args[0] == "update" {
			return &moon.ToolFailedError{Args: args, ExitCode: 1}
		}
		return nil
	}}
	repos := []discovery.Repository{
		repo("/w/a", []string{"x"}),
		repo("/w/b", []string{"x"}),
		repo("/w/c", []string{"x"}),
	}

	var pool Pool
	pool.Init(1)
	o := NewOrchestrator(runner, Options{FailFast: true}, WithOutput(io.Discard), WithPool(&pool))

	report := o.Run(context.Background(), repos)
	if len(report.Results) != 1 || report.Results[0].Root != "/w/a" {
		t.Fatalf("results = %+v, want only /w/a", report.Results)
	}
	if report.OK() {
		t.Error("an early stop must report failure")
	}
	if dirs := runner.Dirs(); !slices.Equal(dirs, []string{"/w/a"}) {
		t.Errorf("moon ran in %q, want only /w/a", dirs)
	}
}

func TestRunFailFastAllSucceed(t *testing.T) {
	t.Parallel()

	runner := &testutil.FakeRunner{}
	repos := []discovery.Repository{repo("/w/a", []string{"x"}), repo("/w/b")}
	o := newTestOrchestrator(runner, Options{FailFast: true}, io.Discard)

	report := o.Run(context.Background(), repos)
	if !report.OK() || len(report.Results) != 2 {
		t.Errorf("report = %+v, want two successful results", report)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &testutil.FakeRunner{}
	o := newTestOrchestrator(runner, Options{}, io.Discard)
	report := o.Run(ctx, []discovery.Repository{repo("/w/a", []string{"x"})})
	if !report.Interrupted || report.OK() {
		t.Errorf("report = %+v, want interrupted", report)
	}
	if len(runner.Calls()) != 0 {
		t.Errorf("no repository should start after cancellation, got %v", runner.Calls())
	}
}

// cancelOnFirstCall cancels the run when the first moon command starts and
// fails any command whose context is already done.
type cancelOnFirstCall struct {
	testutil.FakeRunner
	cancel context.CancelFunc
	once   sync.Once
}

func (r *cancelOnFirstCall) Run(ctx context.Context, dir string, args ...string) (string, error) {
	r.once.Do(r.cancel)
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("failed to execute %s: %w", moon.FormatCommand(args...), err)
	}
	return r.FakeRunner.Run(ctx, dir, args...)
}

func TestRunCancelledMidRunReportsOnlyCompleteResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &cancelOnFirstCall{cancel: cancel}

	var pool Pool
	pool.Init(1)
	o := NewOrchestrator(runner, Options{},
		WithOutput(io.Discard),
		WithPool(&pool),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	report := o.Run(ctx, []discovery.Repository{
		repo("/w/a", []string{"x/one", "x/two", "x/three"}),
		repo("/w/b", []string{"x/one"}),
	})

	if !report.Interrupted || report.OK() {
		t.Errorf("report = %+v, want interrupted", report)
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected only the started repository, got %+v", report.Results)
	}
	res := report.Results[0]
	if !res.Success || len(res.FailedPackages) != 0 || len(res.Errors) != 0 {
		t.Errorf("started repository must finish cleanly, got %+v", res)
	}
	if want := []string{"x/one", "x/two", "x/three"}; !slices.Equal(res.UpdatedPackages, want) {
		t.Errorf("UpdatedPackages = %q, want %q", res.UpdatedPackages, want)
	}
	if got := runner.Dirs(); !slices.Equal(got, []string{"/w/a"}) {
		t.Errorf("moon ran in %q after cancellation", got)
	}
}
