// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the moon-dst command-line interface.
//
// The App type is the composition root: every cobra command is built by a
// newXCommand(app) constructor and reaches configuration, the moon adapter and
// the output streams through it. Subcommands share the discovery flags
// (--root, --ignore, --jobs, ...) and resolve them against the loaded
// configuration with flag > environment > config file > default precedence.
package cmd
