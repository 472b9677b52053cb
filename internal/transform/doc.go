// SPDX-License-Identifier: MPL-2.0

// Package transform turns TypeScript and JSX source into code the host can
// run. A Transformer wraps an opaque Backend with the passes the host needs
// (import.meta bindings for CommonJS output, dynamic import interop, source
// map composition) and a content-addressed cache.
package transform
