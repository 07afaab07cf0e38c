// SPDX-License-Identifier: MPL-2.0

// Package apply runs the per-repository dependency refresh plan across many
// repositories.
//
// A single repository is handled by Orchestrator.ProcessRepo, which runs
// `moon update`, replays `moon add` for every deduplicated dependency and
// finally installs the justfile. Orchestrator.Run fans repositories out over a
// bounded worker pool and implements fail-fast: once a completed repository
// reports failure, no further repositories are started, but repositories that
// are already running always finish their plan.
//
// File organization:
//   - apply.go: Options, RepoResult, Report
//   - worker.go: the per-repository plan
//   - orchestrator.go: parallel dispatch and result collection
//   - pool.go: process-wide worker pool sizing
//   - output.go: serialized progress output shared by workers
package apply
