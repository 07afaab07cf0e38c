// SPDX-License-Identifier: MPL-2.0

package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// GitignoreFileName is the file read by LoadGitignore.
const GitignoreFileName = ".gitignore"

// DefaultNames are the directory names pruned unless defaults are disabled.
var DefaultNames = []string{"target", "node_modules", "dist", "build", "vendor", "skills"}

// Set is an immutable collection of ignored path-component names.
type Set struct {
	names     map[string]struct{}
	gitignore *gitignore.GitIgnore
}

// NewSet builds a Set from caller-supplied names, adding DefaultNames when
// useDefaults is true.
func NewSet(extra []string, useDefaults bool) *Set {
	s := &Set{names: make(map[string]struct{}, len(extra)+len(DefaultNames))}
	for _, name := range extra {
		s.names[name] = struct{}{}
	}
	if useDefaults {
		for _, name := range DefaultNames {
			s.names[name] = struct{}{}
		}
	}
	return s
}

// Names returns the ignored names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Contains reports whether name is an ignored component name.
func (s *Set) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Ignored reports whether any normal component of path is hidden or named in
// the Set. Comparison is exact and case-sensitive.
func (s *Set) Ignored(path string) bool {
	for _, component := range Components(path) {
		if strings.HasPrefix(component, ".") || s.Contains(component) {
			return true
		}
	}
	return false
}

// LoadGitignore attaches the patterns of root/.gitignore to the Set.
// A missing file is not an error.
func (s *Set) LoadGitignore(root string) error {
	path := filepath.Join(root, GitignoreFileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", path, err)
	}
	s.gitignore = gi
	return nil
}

// MatchesGitignore reports whether rel (relative to the gitignore root) is
// matched by the loaded .gitignore patterns.
func (s *Set) MatchesGitignore(rel string, isDir bool) bool {
	if s.gitignore == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if s.gitignore.MatchesPath(rel) {
		return true
	}
	return isDir && s.gitignore.MatchesPath(rel+"/")
}

// Components splits path into its normal components, dropping the volume,
// separators, and "." / ".." elements.
func Components(path string) []string {
	path = strings.TrimPrefix(path, filepath.VolumeName(path))
	parts := strings.Split(filepath.ToSlash(path), "/")
	out := parts[:0]
	for _, part := range parts {
		switch part {
		case "", ".", "..":
			continue
		}
		out = append(out, part)
	}
	return out
}
