// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"os"
	"path/filepath"
	"slices"
)

// VCSMarker is the entry whose presence marks a repository root. Both files
// (submodules, worktrees) and directories count.
const VCSMarker = ".git"

// FindRepoRoot returns the nearest ancestor of the manifest's directory that
// contains a VCSMarker entry, or the manifest's own directory when none exists
// up to the filesystem root.
func FindRepoRoot(manifestPath string) string {
	dir := filepath.Dir(manifestPath)
	for current := dir; ; {
		if _, err := os.Stat(filepath.Join(current, VCSMarker)); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return dir
}

// Group assigns every manifest to its repository and returns the repositories
// sorted by root. Manifests keep their discovery order within a repository.
func Group(manifests []Manifest) []Repository {
	index := make(map[string]int)
	var repos []Repository

	for _, m := range manifests {
		root := FindRepoRoot(m.Path)
		i, ok := index[root]
		if !ok {
			i = len(repos)
			index[root] = i
			repos = append(repos, Repository{Root: root})
		}
		repos[i].Manifests = append(repos[i].Manifests, m)
	}

	slices.SortFunc(repos, func(a, b Repository) int {
		return ComparePaths(a.Root, b.Root)
	})
	return repos
}
