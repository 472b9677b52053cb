// SPDX-License-Identifier: MPL-2.0

// Package deps records every file a resolution touched and forwards each
// new one to a watcher over the dependency channel. Forwarding is best
// effort: a missing or broken channel never fails a resolution.
package deps
