// SPDX-License-Identifier: MPL-2.0

// Package sourcemap reads, builds, and composes version 3 source maps.
//
// Positions are zero-based for both lines and columns everywhere in this
// package. Segments are kept in decoded form ([][]Segment, one slice per
// generated line) while maps are combined, and only re-encoded to the VLQ
// "mappings" string when a Map is produced.
//
// # Composition
//
// Compose chains maps produced by successive passes over the same file:
//
//	final, err := sourcemap.Compose(rewriteMap, backendMap)
//
// The newest map comes first. Each segment of the newest map is traced
// through the older maps down to the original source. A segment whose trace
// lands on a generated-only segment stays generated-only; a segment whose
// line has no mapping at all is dropped.
package sourcemap
