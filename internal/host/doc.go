// SPDX-License-Identifier: MPL-2.0

// Package host provides filesystem-backed host adapters with the module
// resolution rules of a Node-like runtime.
//
// The CommonJS flavor probes its native extensions and resolves
// directories through package.json "main" and index files. The ESM flavor
// requires exact file paths and refuses directory imports. Both resolve
// bare specifiers through node_modules, honoring a package's "exports"
// entry for the flavor's condition.
package host
