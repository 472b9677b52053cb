// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the CLI: what failed, which
// file or specifier was involved, and what the user can do about it.
package issue
