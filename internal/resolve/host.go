// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"

	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Capabilities describe how a host's module subsystem behaves.
	Capabilities struct {
		// AcceptsQuery is set when resolved locations may carry a query
		// string through to the loader.
		AcceptsQuery bool
		// DistinguishesDirectories is set when the host refuses directory
		// imports instead of resolving them to an index file.
		DistinguishesDirectories bool
		// Sync is set when the host calls resolve and load synchronously.
		Sync bool
		// CommonJS is set for require()-style hosts that honor a package's
		// "main" entry.
		CommonJS bool
	}

	// LoadResult is a host's answer to a load request.
	LoadResult struct {
		Format modspec.Format
		// Source is nil for built-in modules.
		Source []byte
	}

	// Host is the native resolver and loader being wrapped.
	Host interface {
		Resolve(ctx context.Context, spec modspec.Specifier, rctx modspec.Context) (modspec.Resolved, error)
		Load(ctx context.Context, loc modspec.Resolved) (*LoadResult, error)
		Capabilities() Capabilities
	}
)
