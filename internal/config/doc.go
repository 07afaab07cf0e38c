// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from $XDG_CONFIG_HOME/moon-dst/config.cue (~/.config on
// Linux when XDG_CONFIG_HOME is unset, ~/Library/Application Support/moon-dst/config.cue
// on macOS, %APPDATA%\moon-dst\config.cue on Windows), falling back to ./moon-dst.cue.
// A missing file is not an error; built-in defaults apply.
//
// Files are validated against the embedded CUE schema (config_schema.cue). Environment
// variables prefixed with MOONDST_ override file values, for example MOONDST_JOBS=4 or
// MOONDST_APPLY_REPEAT=2. Command-line flags are applied on top by the CLI.
package config
