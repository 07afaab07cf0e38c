// SPDX-License-Identifier: MPL-2.0

// Package moon locates the MoonBit command-line tool and runs its sub-commands.
//
// The binary is resolved once per Tool: `moon` on PATH when `moon version`
// succeeds, else $HOME/.moon/bin/moon when that file exists, else the bare name
// so that a later invocation fails with a clear "not found" error.
package moon
