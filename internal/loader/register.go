// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"fmt"
	"os"
	"sync"

	"github.com/srcload/srcload/internal/cache"
	"github.com/srcload/srcload/internal/deps"
	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/internal/transform"
	"github.com/srcload/srcload/internal/transform/esbuild"
	"github.com/srcload/srcload/internal/tsconfig"
	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Config describes one registration.
	Config struct {
		// Namespace isolates the registration. Only requests tagged with the
		// same namespace are handled; "" is the default namespace.
		Namespace string
		// WorkDir is where the project file search starts. Defaults to the
		// working directory.
		WorkDir string
		// Tsconfig is a preloaded project file. When nil the nearest
		// tsconfig.json above WorkDir is used (honoring SRCLOAD_TSCONFIG_PATH).
		Tsconfig *tsconfig.Config
		// SkipTsconfig disables the project file search.
		SkipTsconfig bool
		// ImplicitExtensions probes superset extensions for every importer.
		ImplicitExtensions bool
		// Transformer runs the transforms. Defaults to esbuild with Cache.
		Transformer *transform.Transformer
		// Cache backs the default transformer. Defaults to an in-memory
		// cache.
		Cache cache.Cache
		// Tracker receives every resolved dependency. Optional.
		Tracker *deps.Tracker
		// Manifests is shared with other registrations when set.
		Manifests *resolve.ManifestCache
		// Getenv overrides os.Getenv for the project file search.
		Getenv func(string) string
	}

	// Handle is an active registration.
	Handle struct {
		chain    *Chain
		p        *pipeline
		tsconfig *tsconfig.Config
		once     sync.Once
	}
)

// Register pushes a pipeline for cfg onto chain.
func Register(chain *Chain, cfg Config) (*Handle, error) {
	if chain == nil {
		return nil, ErrNilChain
	}
	project, err := loadProject(cfg)
	if err != nil {
		return nil, err
	}

	tr := cfg.Transformer
	if tr == nil {
		tr = transform.New(esbuild.New(), cfg.Cache)
	}
	manifests := cfg.Manifests
	if manifests == nil {
		manifests = resolve.NewManifestCache()
	}

	p := &pipeline{
		chain:       chain,
		namespace:   cfg.Namespace,
		caps:        chain.Capabilities(),
		transformer: tr,
		tracker:     cfg.Tracker,
	}
	next := below{chain: chain, p: p}
	implicit := cfg.ImplicitExtensions
	if project != nil {
		implicit = implicit || project.AllowJS
		p.matcher = project.Matcher()
		p.jsx = jsxOptions(project.JSX)
	}
	p.plain = resolve.New(resolve.Options{
		Host:               next,
		Namespace:          cfg.Namespace,
		ImplicitExtensions: implicit,
		Manifests:          manifests,
	})
	p.scoped = p.plain
	if project != nil && !project.Aliases().Empty() {
		p.scoped = resolve.New(resolve.Options{
			Host:               next,
			Aliases:            project.Aliases(),
			Namespace:          cfg.Namespace,
			ImplicitExtensions: implicit,
			Manifests:          manifests,
		})
	}

	if err := chain.push(p); err != nil {
		return nil, err
	}
	return &Handle{chain: chain, p: p, tsconfig: project}, nil
}

// Unregister removes the registration, restoring the hooks that were in
// front of the host before Register. Later calls do nothing.
func (h *Handle) Unregister() {
	h.once.Do(func() {
		h.chain.remove(h.p)
	})
}

// Namespace returns the registration's namespace.
func (h *Handle) Namespace() string { return h.p.namespace }

// Tsconfig returns the project file in effect, or nil.
func (h *Handle) Tsconfig() *tsconfig.Config { return h.tsconfig }

// Tracker returns the dependency tracker, or nil.
func (h *Handle) Tracker() *deps.Tracker { return h.p.tracker }

// Transformer returns the transformer used by the registration.
func (h *Handle) Transformer() *transform.Transformer { return h.p.transformer }

// Options returns the transform options the registration uses for a file
// at path loaded with format.
func (h *Handle) Options(path string, format modspec.Format) transform.Options {
	return h.p.options(path, format)
}

func loadProject(cfg Config) (*tsconfig.Config, error) {
	if cfg.Tsconfig != nil || cfg.SkipTsconfig {
		return cfg.Tsconfig, nil
	}
	dir := cfg.WorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return tsconfig.LoadNearest(dir, getenv)
}

func jsxOptions(o tsconfig.JSXOptions) *transform.JSXOptions {
	if o == (tsconfig.JSXOptions{}) {
		return nil
	}
	return &transform.JSXOptions{
		Mode:         o.Mode,
		Factory:      o.Factory,
		Fragment:     o.Fragment,
		ImportSource: o.ImportSource,
	}
}
