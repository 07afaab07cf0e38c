// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"path/filepath"
	"testing"

	"moon-dst-cli/internal/testutil"
)

// canonicalTempDir returns t.TempDir() with symlinks resolved so that paths
// compare equal to what Discover reports (macOS /var -> /private/var).
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	return dir
}

// writeManifest writes a moon.mod.json under dir/rel with the given deps.
func writeManifest(t *testing.T, dir, rel string, deps map[string]string) string {
	t.Helper()
	return testutil.WriteManifest(t, filepath.Join(dir, rel), deps)
}
