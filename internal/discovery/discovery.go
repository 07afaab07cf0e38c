// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"moon-dst-cli/internal/ignore"
)

// ManifestFileName is the leaf name of a MoonBit module manifest.
const ManifestFileName = "moon.mod.json"

var (
	// ErrBadRoot is the sentinel error wrapped by BadRootError.
	ErrBadRoot = errors.New("invalid root path")
	// ErrWalk is the sentinel error wrapped by WalkError.
	ErrWalk = errors.New("walk failed")
)

type (
	// Manifest is one parsed moon.mod.json.
	Manifest struct {
		// Path is the absolute path to the manifest file.
		Path string
		// Deps are the dependency names, sorted and unique.
		Deps []string
	}

	// Repository owns every manifest whose nearest .git ancestor is Root.
	Repository struct {
		// Root is the absolute repository root.
		Root string
		// Manifests are stored in discovery order.
		Manifests []Manifest
	}

	// Result bundles discovered repositories with non-fatal diagnostics.
	Result struct {
		// Root is the canonical walk root.
		Root         string
		Repositories []Repository
		Diagnostics  []Diagnostic
	}

	// Discovery walks a directory tree for manifests.
	Discovery struct {
		root             string
		ignore           *ignore.Set
		respectGitignore bool
		verbose          bool
		out              io.Writer
	}

	// Option configures a Discovery.
	Option func(*Discovery)

	// BadRootError is returned when the walk root cannot be canonicalized or is
	// not a directory.
	BadRootError struct {
		Path string
		Err  error
	}

	// WalkError is returned when the walk itself fails on an entry.
	WalkError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *BadRootError) Error() string {
	return fmt.Sprintf("invalid root path %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrBadRoot so callers can use errors.Is for programmatic detection.
func (e *BadRootError) Unwrap() []error { return []error{ErrBadRoot, e.Err} }

// Error implements the error interface.
func (e *WalkError) Error() string {
	return fmt.Sprintf("failed to walk %s: %v", e.Path, e.Err)
}

// Unwrap returns ErrWalk and the underlying cause.
func (e *WalkError) Unwrap() []error { return []error{ErrWalk, e.Err} }

// WithIgnore sets the ignore rules. Defaults to the built-in names.
func WithIgnore(set *ignore.Set) Option {
	return func(d *Discovery) {
		d.ignore = set
	}
}

// WithGitignore also prunes entries matched by the root's .gitignore.
func WithGitignore(enabled bool) Option {
	return func(d *Discovery) {
		d.respectGitignore = enabled
	}
}

// WithVerbose prints a "Found: <path>" line to out for every parsed manifest.
func WithVerbose(verbose bool, out io.Writer) Option {
	return func(d *Discovery) {
		d.verbose = verbose
		d.out = out
	}
}

// New creates a Discovery rooted at root.
func New(root string, opts ...Option) *Discovery {
	d := &Discovery{
		root:   root,
		ignore: ignore.NewSet(nil, true),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover canonicalizes the root, scans it for manifests, and groups them
// into repositories sorted by root path.
func (d *Discovery) Discover(ctx context.Context) (Result, error) {
	root, err := CanonicalRoot(d.root)
	if err != nil {
		return Result{}, err
	}

	manifests, diags, err := d.scan(ctx, root)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Root:         root,
		Repositories: Group(manifests),
		Diagnostics:  diags,
	}, nil
}

// Scan canonicalizes the root and returns every parseable manifest below it in
// walk order.
func (d *Discovery) Scan(ctx context.Context) ([]Manifest, []Diagnostic, error) {
	root, err := CanonicalRoot(d.root)
	if err != nil {
		return nil, nil, err
	}
	return d.scan(ctx, root)
}

// CanonicalRoot resolves root to an absolute, symlink-free directory path.
func CanonicalRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &BadRootError{Path: root, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &BadRootError{Path: root, Err: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &BadRootError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return "", &BadRootError{Path: root, Err: errors.New("not a directory")}
	}
	return resolved, nil
}

// TotalManifests returns the number of manifests across all repositories.
func (r Result) TotalManifests() int {
	n := 0
	for _, repo := range r.Repositories {
		n += len(repo.Manifests)
	}
	return n
}

// TotalDeps returns the dependency count summed per manifest.
func (r Result) TotalDeps() int {
	n := 0
	for _, repo := range r.Repositories {
		for _, m := range repo.Manifests {
			n += len(m.Deps)
		}
	}
	return n
}

// RelPath returns path relative to the repository root, or path unchanged
// when it does not lie under the root.
func (r Repository) RelPath(path string) string {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// DependencyNames returns the distinct dependency names of every manifest in
// the repository. Names keep the order of their first occurrence, walking
// manifests sorted by path. When filters is non-empty, only names containing
// at least one filter as a case-sensitive substring are kept.
func (r Repository) DependencyNames(filters []string) []string {
	manifests := slices.Clone(r.Manifests)
	slices.SortStableFunc(manifests, func(a, b Manifest) int {
		return ComparePaths(a.Path, b.Path)
	})

	seen := make(map[string]struct{})
	var names []string
	for _, m := range manifests {
		for _, dep := range m.Deps {
			if _, dup := seen[dep]; dup {
				continue
			}
			if !matchesAny(dep, filters) {
				continue
			}
			seen[dep] = struct{}{}
			names = append(names, dep)
		}
	}
	return names
}

func matchesAny(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// ComparePaths orders paths component by component, so "a/b" sorts before
// "a-b" the way a directory listing would.
func ComparePaths(a, b string) int {
	return slices.Compare(
		strings.Split(filepath.ToSlash(a), "/"),
		strings.Split(filepath.ToSlash(b), "/"),
	)
}
