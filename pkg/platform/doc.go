// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform compatibility utilities.
//
// It owns the per-user runtime directory shared by the transform cache and
// the dependency notification socket.
package platform
