// SPDX-License-Identifier: MPL-2.0

// Package ipc implements the dependency notification channel: JSON messages
// framed by a 4-byte big-endian length header, carried over a unix socket
// from the loading process to an external watcher.
package ipc
