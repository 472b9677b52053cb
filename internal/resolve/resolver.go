// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/srcload/srcload/internal/tsconfig"
	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Options configure a Resolver.
	Options struct {
		// Host is the native resolver. Required.
		Host Host
		// Aliases is the project's path alias table. Optional.
		Aliases *tsconfig.AliasTable
		// Namespace restricts the resolver to requests carrying this tag.
		Namespace string
		// ImplicitExtensions treats every importer as TypeScript source for
		// extension probing (allowJs or an explicit setting).
		ImplicitExtensions bool
		// Probe is the implicit extension order. Defaults to DefaultExtensions.
		Probe *Probe
		// Manifests tags module formats. A private cache is created when nil.
		Manifests *ManifestCache
	}

	// Resolver turns specifiers into resolved locations. It holds no
	// per-request state and is safe for concurrent use.
	Resolver struct {
		host      Host
		caps      Capabilities
		aliases   *tsconfig.AliasTable
		namespace string
		implicit  bool
		probe     *Probe
		manifests *ManifestCache
	}
)

// New creates a resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		host:      opts.Host,
		caps:      opts.Host.Capabilities(),
		aliases:   opts.Aliases,
		namespace: opts.Namespace,
		implicit:  opts.ImplicitExtensions,
		probe:     opts.Probe,
		manifests: opts.Manifests,
	}
	if r.probe == nil {
		r.probe = NewProbe()
	}
	if r.manifests == nil {
		r.manifests = NewManifestCache()
	}
	return r
}

// Namespace returns the namespace the resolver serves ("" for none).
func (r *Resolver) Namespace() string { return r.namespace }

// Capabilities returns the wrapped host's capabilities.
func (r *Resolver) Capabilities() Capabilities { return r.caps }

// Owns reports whether a request belongs to this resolver's namespace. The
// namespace comes from the specifier's query, else from the importer's
// location, else from the structured context.
func (r *Resolver) Owns(spec modspec.Specifier, rctx modspec.Context) bool {
	ns := modspec.Namespace(string(spec))
	if ns == "" {
		ns = modspec.Namespace(rctx.Parent)
	}
	if ns == "" {
		ns = rctx.Namespace
	}
	return ns == r.namespace
}

// Resolve resolves spec for the importer described by rctx. Requests for
// another namespace, built-ins, and data: URLs go to the host untouched.
func (r *Resolver) Resolve(ctx context.Context, spec modspec.Specifier, rctx modspec.Context) (modspec.Resolved, error) {
	if !r.Owns(spec, rctx) || spec.IsBuiltin() || spec.IsData() {
		return r.host.Resolve(ctx, spec, rctx)
	}
	rctx.Namespace = r.namespace

	path, query := spec.Split()
	res, err := r.resolvePath(ctx, path, rctx)
	if err != nil {
		return modspec.Resolved{}, r.finalError(err, spec, rctx)
	}
	return r.finish(res, query), nil
}

func (r *Resolver) resolvePath(ctx context.Context, path string, rctx modspec.Context) (modspec.Resolved, error) {
	parentPath := modspec.ToPath(rctx.Parent)
	superset := r.implicit || modspec.IsSupersetPath(parentPath)
	spec := modspec.Specifier(path)
	kind := spec.Kind()

	if kind == modspec.KindBare && !inDependencyDir(parentPath) && !r.aliases.Empty() {
		for _, cand := range r.aliases.Match(path) {
			if res, ok, err := r.tryCandidate(ctx, cand, superset, rctx); err != nil || ok {
				return res, err
			}
		}
	}

	if superset && (kind == modspec.KindRelative || kind == modspec.KindAbsolute) {
		if res, ok, err := r.shadow(ctx, path, rctx); err != nil || ok {
			return res, err
		}
	}

	res, hostErr := r.host.Resolve(ctx, spec, rctx)
	if hostErr == nil {
		return res, nil
	}
	dirRefused := r.caps.DistinguishesDirectories && IsDirectoryImport(hostErr)
	if !IsNotFound(hostErr) && !dirRefused {
		return modspec.Resolved{}, hostErr
	}
	if dirRefused && spec.HasTrailingSlash() {
		// An explicit directory request stays refused.
		return modspec.Resolved{}, hostErr
	}

	// Directory index.
	if res, ok, err := r.probeAll(ctx, strings.TrimSuffix(path, "/")+"/index", r.probe.extensions, rctx); err != nil || ok {
		return res, err
	}
	// Implicit extension on the request itself.
	if !spec.HasTrailingSlash() {
		if res, ok, err := r.probeAll(ctx, path, r.probe.extensions, rctx); err != nil || ok {
			return res, err
		}
	}
	// Package entry, for require()-style hosts.
	if r.caps.CommonJS && kind == modspec.KindBare {
		if res, ok, err := r.packageEntry(ctx, path, rctx); err != nil || ok {
			return res, err
		}
	}
	return modspec.Resolved{}, hostErr
}

// tryCandidate resolves one alias candidate: with each probe extension
// (TypeScript importers only), literally, then as a directory index.
func (r *Resolver) tryCandidate(ctx context.Context, cand string, superset bool, rctx modspec.Context) (modspec.Resolved, bool, error) {
	if superset {
		if res, ok, err := r.probeAll(ctx, cand, r.probe.extensions, rctx); err != nil || ok {
			return res, ok, err
		}
	}
	if res, ok, err := r.attempt(ctx, cand, rctx); err != nil || ok {
		return res, ok, err
	}
	return r.probeAll(ctx, filepath.Join(cand, "index"), r.probe.extensions, rctx)
}

// shadow tries TypeScript sources before the host sees a relative or
// absolute request: "./a.js" becomes "./a.ts" or "./a.tsx", and an
// extensionless "./a" becomes the first sibling file "./a.<ext>" in probe
// order. Only when no sibling file exists does "./a" become "./a/index.ts".
func (r *Resolver) shadow(ctx context.Context, path string, rctx modspec.Context) (modspec.Resolved, bool, error) {
	ext := filepath.Ext(path)
	if mapped, ok := Mapped(ext); ok {
		return r.probeAll(ctx, strings.TrimSuffix(path, ext), mapped, rctx)
	}
	if hasModuleExtension(path) {
		return modspec.Resolved{}, false, nil
	}
	if !modspec.Specifier(path).HasTrailingSlash() {
		// A file beats a directory of the same name.
		if res, ok, err := r.probeAll(ctx, path, r.probe.extensions, rctx); err != nil || ok {
			return res, ok, err
		}
	}
	return r.probeAll(ctx, strings.TrimSuffix(path, "/")+"/index", SupersetExtensions, rctx)
}

// packageEntry looks up the "main" field of a bare package directly and
// probes it, for packages whose entry exists only as TypeScript source.
func (r *Resolver) packageEntry(ctx context.Context, name string, rctx modspec.Context) (modspec.Resolved, bool, error) {
	parentPath := modspec.ToPath(rctx.Parent)
	if parentPath == "" {
		return modspec.Resolved{}, false, nil
	}
	for dir := filepath.Dir(parentPath); ; {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
		m, err := r.manifests.Read(filepath.Join(pkgDir, ManifestFileName))
		if err != nil {
			return modspec.Resolved{}, false, err
		}
		if m != nil && m.Main != "" {
			main := filepath.Join(pkgDir, filepath.FromSlash(m.Main))
			if res, ok, err := r.tryCandidate(ctx, main, true, rctx); err != nil || ok {
				return res, ok, err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return modspec.Resolved{}, false, nil
		}
		dir = parent
	}
}

func (r *Resolver) probeAll(ctx context.Context, base string, exts []string, rctx modspec.Context) (modspec.Resolved, bool, error) {
	for _, ext := range exts {
		if res, ok, err := r.attempt(ctx, base+ext, rctx); err != nil || ok {
			return res, ok, err
		}
	}
	return modspec.Resolved{}, false, nil
}

// attempt asks the host for one candidate. Not-found and refused directory
// imports count as a miss; any other error ends the resolution.
func (r *Resolver) attempt(ctx context.Context, candidate string, rctx modspec.Context) (modspec.Resolved, bool, error) {
	res, err := r.host.Resolve(ctx, modspec.Specifier(candidate), rctx)
	switch {
	case err == nil:
		return res, true, nil
	case IsNotFound(err) || IsDirectoryImport(err):
		return modspec.Resolved{}, false, nil
	default:
		return modspec.Resolved{}, false, err
	}
}

// finish tags the format and reattaches the query.
func (r *Resolver) finish(res modspec.Resolved, query string) modspec.Resolved {
	if res.Format == modspec.FormatUnknown && !res.IsBuiltin() && !res.IsData() &&
		(modspec.IsSupersetPath(res.Path) || filepath.Ext(res.Path) == ".jsx") {
		f := modspec.FormatForExtension(res.Path)
		if f == modspec.FormatUnknown {
			f = r.manifests.FormatFor(res.Path)
		}
		res = res.WithFormat(f)
	}

	if !r.caps.AcceptsQuery || res.IsBuiltin() || res.IsData() {
		return res.WithQuery("")
	}
	if r.namespace != "" {
		query = modspec.WithNamespace(query, r.namespace)
	}
	return res.WithQuery(query)
}

// finalError rewrites a not-found failure to name the specifier the caller
// wrote rather than the last candidate tried.
func (r *Resolver) finalError(err error, spec modspec.Specifier, rctx modspec.Context) error {
	if !IsNotFound(err) {
		return err
	}
	path, _ := spec.Split()
	nf := &NotFoundError{Specifier: string(spec), Parent: rctx.Parent}
	var hostNF *NotFoundError
	if errors.As(err, &hostNF) {
		nf.Detail = stripSynthetic(hostNF.Detail, path, r.probe.extensions)
	} else {
		nf.Detail = stripSynthetic(err.Error(), path, r.probe.extensions)
	}
	return nf
}

func inDependencyDir(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/node_modules/")
}
