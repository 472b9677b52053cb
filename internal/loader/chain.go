// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"slices"
	"sync"

	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Chain is the ordered set of hooks in front of a host. The most
	// recent registration sees a request first. Chain implements
	// resolve.Host, so it can stand wherever the native host did.
	Chain struct {
		base resolve.Host

		mu    sync.RWMutex
		hooks []*pipeline
	}

	// below is the view of the chain from one registration: the hooks
	// registered before it, ending at the base host.
	below struct {
		chain *Chain
		p     *pipeline
	}
)

// NewChain wraps base, the host's native resolver and loader.
func NewChain(base resolve.Host) *Chain {
	return &Chain{base: base}
}

// Base returns the wrapped host.
func (c *Chain) Base() resolve.Host { return c.base }

// Len returns the number of active registrations.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hooks)
}

// Capabilities implements resolve.Host.
func (c *Chain) Capabilities() resolve.Capabilities { return c.base.Capabilities() }

// Resolve implements resolve.Host.
func (c *Chain) Resolve(ctx context.Context, spec modspec.Specifier, rctx modspec.Context) (modspec.Resolved, error) {
	return c.top().Resolve(ctx, spec, rctx)
}

// Load implements resolve.Host.
func (c *Chain) Load(ctx context.Context, loc modspec.Resolved) (*resolve.LoadResult, error) {
	return c.top().Load(ctx, loc)
}

func (c *Chain) top() resolve.Host {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n := len(c.hooks); n > 0 {
		return c.hooks[n-1]
	}
	return c.base
}

// beneath returns the host directly below p. A pipeline that is no longer
// registered falls through to the base host.
func (c *Chain) beneath(p *pipeline) resolve.Host {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := slices.Index(c.hooks, p)
	if i <= 0 {
		return c.base
	}
	return c.hooks[i-1]
}

func (c *Chain) push(p *pipeline) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.hooks {
		if h.namespace == p.namespace {
			return &NamespaceError{Namespace: p.namespace}
		}
	}
	c.hooks = append(c.hooks, p)
	return nil
}

func (c *Chain) remove(p *pipeline) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.hooks, p)
	if i < 0 {
		return false
	}
	c.hooks = slices.Delete(c.hooks, i, i+1)
	return true
}

func (b below) Resolve(ctx context.Context, spec modspec.Specifier, rctx modspec.Context) (modspec.Resolved, error) {
	return b.chain.beneath(b.p).Resolve(ctx, spec, rctx)
}

func (b below) Load(ctx context.Context, loc modspec.Resolved) (*resolve.LoadResult, error) {
	return b.chain.beneath(b.p).Load(ctx, loc)
}

func (b below) Capabilities() resolve.Capabilities { return b.chain.base.Capabilities() }
