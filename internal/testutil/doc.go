// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv, MustUnsetenv,
// SetHomeDir), directory operations (MustChdir, MustMkdirAll), and workspace
// builders for manifest trees (WriteManifest, InitRepo). FakeRunner is
// a recording stand-in for the moon CLI.
package testutil
