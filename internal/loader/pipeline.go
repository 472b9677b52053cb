// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/srcload/srcload/internal/deps"
	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/internal/transform"
	"github.com/srcload/srcload/internal/tsconfig"
	"github.com/srcload/srcload/pkg/modspec"
)

// pipeline is one registration's resolve and load hooks.
type pipeline struct {
	chain     *Chain
	namespace string
	caps      resolve.Capabilities

	// scoped applies the project's path aliases; plain is used for
	// importers the project does not include.
	scoped  *resolve.Resolver
	plain   *resolve.Resolver
	matcher *tsconfig.FileMatcher
	jsx     *transform.JSXOptions

	transformer *transform.Transformer
	tracker     *deps.Tracker

	// resolved remembers paths this pipeline produced, for hosts whose
	// locations cannot carry the namespace query.
	resolved sync.Map
}

// Capabilities implements resolve.Host.
func (p *pipeline) Capabilities() resolve.Capabilities { return p.caps }

// Resolve implements resolve.Host.
func (p *pipeline) Resolve(ctx context.Context, spec modspec.Specifier, rctx modspec.Context) (modspec.Resolved, error) {
	// Children of a file this pipeline resolved inherit its namespace when
	// the location has no room for the query.
	if !p.caps.AcceptsQuery && rctx.Namespace == "" && p.namespace != "" && rctx.Parent != "" {
		if _, ok := p.resolved.Load(modspec.ToPath(rctx.Parent)); ok {
			rctx.Namespace = p.namespace
		}
	}
	r := p.resolverFor(rctx.Parent)
	if !r.Owns(spec, rctx) {
		return below{chain: p.chain, p: p}.Resolve(ctx, spec, rctx)
	}
	res, err := r.Resolve(ctx, spec, rctx)
	if err != nil {
		return modspec.Resolved{}, err
	}
	if !res.IsBuiltin() && !res.IsData() {
		p.resolved.Store(res.Path, struct{}{})
	}
	if p.tracker != nil {
		p.tracker.Track(ctx, res)
	}
	return res, nil
}

// Load implements resolve.Host. Transformable source owned by this
// pipeline is compiled; everything else is loaded by the hooks below.
func (p *pipeline) Load(ctx context.Context, loc modspec.Resolved) (*resolve.LoadResult, error) {
	next := below{chain: p.chain, p: p}
	if !p.owns(loc) {
		return next.Load(ctx, loc)
	}
	out, err := next.Load(ctx, loc)
	if err != nil || out.Source == nil || loc.IsData() {
		return out, err
	}
	path := modspec.ToPath(loc.Path)
	if out.Format == modspec.FormatJSON || out.Format == modspec.FormatBuiltin || !modspec.IsTransformable(path) {
		return out, nil
	}

	opts := p.options(path, out.Format)
	var res *transform.Result
	if p.caps.Sync {
		res, err = p.transformer.TransformSync(string(out.Source), opts)
	} else {
		res, err = p.transformer.Transform(ctx, string(out.Source), opts)
	}
	if err != nil {
		return nil, err
	}
	code, err := res.CodeWithInlineMap()
	if err != nil {
		return nil, err
	}
	return &resolve.LoadResult{Format: opts.Format, Source: []byte(code)}, nil
}

// options builds the transform options for path. Unknown formats compile
// to CommonJS. JSX settings apply to .tsx and .jsx files the project
// includes.
func (p *pipeline) options(path string, format modspec.Format) transform.Options {
	opts := transform.Options{Format: format, SourcePath: path}
	if opts.Format == modspec.FormatUnknown {
		opts.Format = modspec.FormatCommonJS
	}
	if ext := filepath.Ext(path); (ext == ".tsx" || ext == ".jsx") && p.matcher.Includes(path) {
		opts.JSX = p.jsx
	}
	return opts
}

// resolverFor picks the alias-aware resolver for importers the project
// includes. Entry points always get it.
func (p *pipeline) resolverFor(parent string) *resolve.Resolver {
	if parent == "" || p.matcher.Includes(modspec.ToPath(parent)) {
		return p.scoped
	}
	return p.plain
}

func (p *pipeline) owns(loc modspec.Resolved) bool {
	if modspec.Namespace(loc.URL()) == p.namespace {
		return true
	}
	if p.caps.AcceptsQuery {
		return false
	}
	_, ok := p.resolved.Load(loc.Path)
	return ok
}
