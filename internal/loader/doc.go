// SPDX-License-Identifier: MPL-2.0

// Package loader installs the resolution and transform pipeline in front of
// a host's native resolver and loader.
//
// A Chain wraps the host. Each Register call pushes a pipeline onto the
// chain; the pipeline handles the requests of its namespace and passes
// everything else to the hooks below it. Handle.Unregister removes the
// pipeline again, leaving every other registration in place.
package loader
