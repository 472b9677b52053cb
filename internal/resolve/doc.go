// SPDX-License-Identifier: MPL-2.0

// Package resolve implements specifier resolution on top of a host's
// native resolver: path aliases, superset-extension shadowing, implicit
// extension and directory-index fallbacks, and module format tagging.
//
// The host is reached only through the Host interface. CommonJS-like and
// ESM-like hosts differ in their Capabilities, not in the algorithm.
package resolve
