// SPDX-License-Identifier: MPL-2.0

// Package dynimport rewrites dynamic import() calls in transformed code so
// that a CommonJS module imported through import() exposes its exports the
// way a native ESM import would.
//
// The scanner is lexical: it understands comments, string, template and
// regular-expression literals well enough to find real call sites, and
// tracks parentheses to find where each call ends. No syntax tree is built.
package dynimport
