// SPDX-License-Identifier: MPL-2.0

// Package types defines small value types shared by the CLI and the
// configuration layer. It imports only the standard library.
package types
