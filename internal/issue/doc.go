// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. The Issue catalog holds longer Markdown guidance pages for
// failures that need more than a one-line suggestion, such as a missing moon
// toolchain; pages are rendered for the terminal with glamour.
package issue
