// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"
)

// depsKey is the manifest field holding the dependency object.
const depsKey = "deps"

// scan walks root in lexical pre-order without following symlinks. Ignored
// directories are pruned before descent. Unparseable manifests are reported as
// diagnostics and skipped.
func (d *Discovery) scan(ctx context.Context, root string) ([]Manifest, []Diagnostic, error) {
	var (
		manifests []Manifest
		diags     []Diagnostic
	)

	if d.respectGitignore {
		if err := d.ignore.LoadGitignore(root); err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeGitignoreUnreadable,
				Message:  err.Error(),
				Path:     root,
				Cause:    err,
			})
		}
	}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &WalkError{Path: path, Err: walkErr}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.pruned(root, path, entry.IsDir()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() || entry.Name() != ManifestFileName {
			return nil
		}

		deps, err := ParseManifest(path)
		if err != nil {
			slog.Debug("skipping unparseable manifest", "path", path, "error", err)
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeManifestParseSkipped,
				Message:  fmt.Sprintf("Failed to parse %s: %v", path, err),
				Path:     path,
				Cause:    err,
			})
			return nil
		}

		if d.verbose && d.out != nil {
			fmt.Fprintf(d.out, "Found: %s\n", path)
		}
		manifests = append(manifests, Manifest{Path: path, Deps: deps})
		return nil
	})
	if err != nil {
		return nil, diags, err
	}

	return manifests, diags, nil
}

// pruned applies the ignore rules to the absolute path, root components
// included. The .gitignore patterns are matched relative to root.
func (d *Discovery) pruned(root, path string, isDir bool) bool {
	if d.ignore.Ignored(path) {
		return true
	}
	if !d.respectGitignore || path == root {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return d.ignore.MatchesGitignore(rel, isDir)
}

// ParseManifest reads a moon.mod.json file and returns its dependency names,
// sorted. A missing "deps" field yields an empty list; "deps" must otherwise
// be a JSON object.
func ParseManifest(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, errInvalidUTF8
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON: %w", err)
	}
	if doc == nil {
		return nil, errNotObject
	}

	raw, ok := doc[depsKey]
	if !ok {
		return []string{}, nil
	}
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, errDepsNotObject
	}
	var depMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &depMap); err != nil {
		return nil, fmt.Errorf("invalid deps: %w", err)
	}

	deps := make([]string, 0, len(depMap))
	for name := range depMap {
		deps = append(deps, name)
	}
	slices.Sort(deps)
	return deps, nil
}

var (
	errInvalidUTF8   = errors.New("stream did not contain valid UTF-8")
	errNotObject     = errors.New("manifest is not a JSON object")
	errDepsNotObject = errors.New(`"deps" must be a JSON object`)
)
