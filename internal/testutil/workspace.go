// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

// manifestName mirrors discovery.ManifestFileName without importing it, so
// that package tests can use these helpers.
const manifestName = "moon.mod.json"

// WriteManifest writes dir/moon.mod.json with the given deps and returns its path.
// A nil deps map omits the "deps" field entirely.
func WriteManifest(t testing.TB, dir string, deps map[string]string) string {
	t.Helper()
	doc := map[string]any{"name": "test/" + filepath.Base(dir)}
	if deps != nil {
		doc["deps"] = deps
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	path := filepath.Join(dir, manifestName)
	MustWriteFile(t, path, data)
	return path
}

// InitRepo marks dir as a repository root by creating dir/.git.
func InitRepo(t testing.TB, dir string) string {
	t.Helper()
	MustMkdirAll(t, filepath.Join(dir, ".git"), 0o755)
	return dir
}

func parentDir(path string) string {
	return filepath.Dir(path)
}
