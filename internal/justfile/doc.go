// SPDX-License-Identifier: MPL-2.0

// Package justfile installs the built-in MoonBit task-runner file into
// repository roots.
//
// The template body is embedded verbatim from template.just. Creation is
// atomic: the content is written to a temporary file in the repository root
// and renamed into place, so a concurrent reader never observes a partial
// justfile.
package justfile
