// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/srcload/srcload/internal/cache"
	"github.com/srcload/srcload/internal/dynimport"
	"github.com/srcload/srcload/pkg/modspec"
	"github.com/srcload/srcload/pkg/sourcemap"

	"golang.org/x/sync/singleflight"
)

// PipelineVersion changes whenever the passes around the backend change
// their output. It is part of every cache key.
const PipelineVersion = "2"

// Transformer runs source through a Backend and the interop passes, with
// results cached by content. It is safe for concurrent use; concurrent
// requests for the same key share one backend call.
type Transformer struct {
	backend Backend
	cache   cache.Cache
	flight  singleflight.Group
}

// New creates a transformer. A nil cache means an unbounded memory cache.
func New(backend Backend, c cache.Cache) *Transformer {
	if c == nil {
		c = cache.NewMemory()
	}
	return &Transformer{backend: backend, cache: c}
}

// Backend returns the wrapped backend.
func (t *Transformer) Backend() Backend { return t.backend }

// Key returns the cache key for source under opts.
func (t *Transformer) Key(source string, opts Options) (string, error) {
	optBytes, err := opts.keyBytes()
	if err != nil {
		return "", fmt.Errorf("serializing transform options: %w", err)
	}
	return cache.Key(
		[]byte(PipelineVersion),
		[]byte(t.backend.Name()),
		[]byte(t.backend.Version()),
		optBytes,
		[]byte(source),
	), nil
}

// Transform is the asynchronous form of TransformSync. The work runs to
// completion (and is cached) even when ctx ends first; only the wait is
// abandoned.
func (t *Transformer) Transform(ctx context.Context, source string, opts Options) (*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := t.TransformSync(source, opts)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TransformSync transforms source, serving from the cache when possible.
// Backend failures are returned as *Error and never cached.
func (t *Transformer) TransformSync(source string, opts Options) (*Result, error) {
	key, err := t.Key(source, opts)
	if err != nil {
		return nil, err
	}
	if res, ok := t.lookup(key); ok {
		return res, nil
	}

	v, err, _ := t.flight.Do(key, func() (any, error) {
		if res, ok := t.lookup(key); ok {
			return res, nil
		}
		return t.run(key, source, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (t *Transformer) lookup(key string) (*Result, bool) {
	e, ok := t.cache.Get(key)
	if !ok {
		return nil, false
	}
	m, err := sourcemap.Parse(e.Map)
	if err != nil {
		slog.Debug("ignoring cached source map", "key", key, "error", err)
		m = nil
	}
	return &Result{Code: e.Code, Map: m, Warnings: e.Warnings, Cached: true}, true
}

func (t *Transformer) run(key, source string, opts Options) (*Result, error) {
	out, err := t.backend.Transform(source, BackendOptions{
		Loader:     LoaderFor(opts.SourcePath),
		Format:     opts.Format,
		Sourcefile: opts.SourcePath,
		Define:     DefineFor(opts.Format),
		Banner:     BannerFor(opts.Format, source),
		JSX:        opts.JSX,
		Extra:      opts.Backend,
	})
	if err != nil {
		return nil, normalize(err, opts.SourcePath)
	}

	res := &Result{Code: out.Code}
	if res.Map, err = sourcemap.Parse(out.Map); err != nil {
		return nil, fmt.Errorf("parsing %s source map: %w", t.backend.Name(), err)
	}
	for _, w := range out.Warnings {
		res.Warnings = append(res.Warnings, w.String())
	}

	if opts.Format != modspec.FormatJSON {
		if rw, ok := dynimport.Rewrite(res.Code, opts.SourcePath); ok {
			res.Code = rw.Code
			if res.Map != nil {
				composed, err := sourcemap.Compose(rw.Map, res.Map)
				if err != nil {
					return nil, fmt.Errorf("composing source maps: %w", err)
				}
				res.Map = composed
			}
		}
	}

	entry := &cache.Entry{Code: res.Code, Warnings: res.Warnings}
	if res.Map != nil {
		raw, err := res.Map.Marshal()
		if err != nil {
			return nil, fmt.Errorf("encoding source map: %w", err)
		}
		entry.Map = json.RawMessage(raw)
	}
	t.cache.Set(key, entry)
	return res, nil
}
