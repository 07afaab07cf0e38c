// SPDX-License-Identifier: MPL-2.0

// Package ignore decides which path components are pruned from a manifest walk.
//
// A path is ignored when any of its normal components starts with a dot or
// exactly matches one of the names in a Set. The dot-prefix rule cannot be
// disabled. A Set may optionally carry the patterns of a root .gitignore file,
// which only ever prune more entries.
package ignore
