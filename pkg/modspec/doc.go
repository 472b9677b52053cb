// SPDX-License-Identifier: MPL-2.0

// Package modspec defines the value types shared by the resolution and
// transform pipeline: import specifiers, module formats, resolution
// contexts, and resolved locations.
//
// All types are plain values. Helpers that change a value return a copy.
package modspec
