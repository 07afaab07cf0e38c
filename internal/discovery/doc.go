// SPDX-License-Identifier: MPL-2.0

// Package discovery finds moon.mod.json manifests below a root directory and
// groups them by the repository that owns them.
//
// File organization:
//   - discovery.go: core types (Manifest, Repository, Discovery) and errors
//   - discovery_files.go: the pruned filesystem walk and manifest parsing
//   - discovery_repos.go: repository root detection and grouping
//   - diagnostic.go: non-fatal diagnostics returned to the CLI layer
package discovery
