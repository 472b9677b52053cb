// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the srcload command tree.
//
// The commands drive the loader pipeline from the shell: resolving a
// specifier the way a registered hook would, compiling files ahead of time,
// inspecting the transform cache, and listening on the dependency channel.
package cmd
