// SPDX-License-Identifier: MPL-2.0

package resolve_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/srcload/srcload/internal/host"
	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/internal/testutil"
	"github.com/srcload/srcload/internal/tsconfig"
	"github.com/srcload/srcload/pkg/modspec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(flavor host.Flavor, opts resolve.Options) *resolve.Resolver {
	opts.Host = host.New(flavor)
	return resolve.New(opts)
}

func fromTS(root string) modspec.Context {
	return modspec.Context{Parent: filepath.Join(root, "main.ts")}
}

func TestResolveAliasPrecedence(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.ts":        "",
		"pkg/x.ts":       "relative",
		"src/x.ts":       "aliased",
		"src/y/index.ts": "",
	})
	aliases := tsconfig.NewAliasTable([]tsconfig.PathEntry{
		{Pattern: "pkg/*", Candidates: []string{"./src/*"}},
	}, root, "")

	for _, flavor := range []host.Flavor{host.CommonJS, host.Module} {
		t.Run(flavor.String(), func(t *testing.T) {
			t.Parallel()
			r := newResolver(flavor, resolve.Options{Aliases: aliases})
			ctx := context.Background()

			rel, err := r.Resolve(ctx, "./pkg/x", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "pkg", "x.ts"), rel.Path)

			bare, err := r.Resolve(ctx, "pkg/x", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "src", "x.ts"), bare.Path)
			assert.NotEqual(t, rel, bare)

			dir, err := r.Resolve(ctx, "pkg/y", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "src", "y", "index.ts"), dir.Path)
		})
	}
}

func TestResolveAliasSkippedInsideDependencies(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"src/x.ts":                  "",
		"node_modules/dep/index.js": "",
		"node_modules/pkg/x.js":     "",
	})
	aliases := tsconfig.NewAliasTable([]tsconfig.PathEntry{
		{Pattern: "pkg/*", Candidates: []string{"./src/*"}},
	}, root, "")
	r := newResolver(host.CommonJS, resolve.Options{Aliases: aliases})

	res, err := r.Resolve(context.Background(), "pkg/x", modspec.Context{
		Parent: filepath.Join(root, "node_modules", "dep", "index.js"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "node_modules", "pkg", "x.js"), res.Path)
}

func TestResolveIndexPrefersTypeScript(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.ts":      "",
		"dir/index.ts": "",
		"dir/index.js": "",
	})
	for _, flavor := range []host.Flavor{host.CommonJS, host.Module} {
		t.Run(flavor.String(), func(t *testing.T) {
			t.Parallel()
			r := newResolver(flavor, resolve.Options{})
			res, err := r.Resolve(context.Background(), "./dir", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "dir", "index.ts"), res.Path)
		})
	}
}

func TestResolveTrailingSlash(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.ts": "",
		"lib.ts":  "",
	})
	for _, flavor := range []host.Flavor{host.CommonJS, host.Module} {
		t.Run(flavor.String(), func(t *testing.T) {
			t.Parallel()
			r := newResolver(flavor, resolve.Options{})
			ctx := context.Background()

			res, err := r.Resolve(ctx, "./lib", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "lib.ts"), res.Path)

			_, err = r.Resolve(ctx, "./lib/", fromTS(root))
			require.Error(t, err)
			assert.True(t, resolve.IsNotFound(err))

			var nf *resolve.NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, "./lib/", nf.Specifier)
		})
	}
}

func TestResolveFileBeatsDirectoryIndex(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.ts":      "",
		"dir.js":       "",
		"dir/index.ts": "",
	})
	for _, flavor := range []host.Flavor{host.CommonJS, host.Module} {
		t.Run(flavor.String(), func(t *testing.T) {
			t.Parallel()
			r := newResolver(flavor, resolve.Options{})
			ctx := context.Background()

			res, err := r.Resolve(ctx, "./dir", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "dir.js"), res.Path)

			res, err = r.Resolve(ctx, "./dir/", fromTS(root))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "dir", "index.ts"), res.Path)
		})
	}
}

func TestResolveShadowsCompiledSiblings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.ts":  "",
		"main.js":  "",
		"util.ts":  "",
		"util.js":  "",
		"view.tsx": "",
		"mod.mts":  "",
	})
	r := newResolver(host.Module, resolve.Options{})
	ctx := context.Background()

	tests := map[string]string{
		"./util.js": "util.ts",
		"./view.js": "view.tsx",
		"./mod.mjs": "mod.mts",
	}
	for spec, want := range tests {
		res, err := r.Resolve(ctx, modspec.Specifier(spec), fromTS(root))
		require.NoError(t, err, spec)
		assert.Equal(t, filepath.Join(root, want), res.Path, spec)
	}

	// A plain JavaScript importer gets the file it asked for.
	res, err := r.Resolve(ctx, "./util.js", modspec.Context{Parent: filepath.Join(root, "main.js")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "util.js"), res.Path)

	// Implicit mode shadows for every importer.
	implicit := newResolver(host.Module, resolve.Options{ImplicitExtensions: true})
	res, err = implicit.Resolve(ctx, "./util.js", modspec.Context{Parent: filepath.Join(root, "main.js")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "util.ts"), res.Path)
}

func TestResolveModuleDirectoryImport(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.js":      "",
		"dir/index.js": "",
	})
	r := newResolver(host.Module, resolve.Options{})
	ctx := context.Background()
	parent := modspec.Context{Parent: filepath.Join(root, "main.js")}

	res, err := r.Resolve(ctx, "./dir", parent)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dir", "index.js"), res.Path)

	_, err = r.Resolve(ctx, "./dir/", parent)
	require.Error(t, err)
	assert.ErrorIs(t, err, resolve.ErrUnsupported)
}

func TestResolveFormatAndQuery(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"package.json": `{"type": "module"}`,
		"main.ts":      "",
		"a.ts":         "",
		"b.cts":        "",
		"c.json":       "{}",
	})
	ctx := context.Background()

	esm := newResolver(host.Module, resolve.Options{})
	res, err := esm.Resolve(ctx, "./a.ts?x=1", fromTS(root))
	require.NoError(t, err)
	assert.Equal(t, modspec.FormatModule, res.Format)
	assert.Equal(t, "?x=1", res.Query)

	res, err = esm.Resolve(ctx, "./b.cts", fromTS(root))
	require.NoError(t, err)
	assert.Equal(t, modspec.FormatCommonJS, res.Format)

	res, err = esm.Resolve(ctx, "node:path?x=1", fromTS(root))
	require.NoError(t, err)
	assert.Equal(t, modspec.FormatBuiltin, res.Format)
	assert.Empty(t, res.Query)

	cjs := newResolver(host.CommonJS, resolve.Options{})
	res, err = cjs.Resolve(ctx, "./c?x=1", fromTS(root))
	require.NoError(t, err)
	assert.Equal(t, modspec.FormatJSON, res.Format)
	assert.Empty(t, res.Query, "CommonJS paths cannot carry a query")

	namespaced := newResolver(host.Module, resolve.Options{Namespace: "ns1"})
	res, err = namespaced.Resolve(ctx, "./a.ts?srcload-namespace=ns1", fromTS(root))
	require.NoError(t, err)
	assert.Equal(t, "ns1", modspec.Namespace(res.URL()))
}

func TestResolveNamespaceIsolation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.ts":    "",
		"one/lib.ts": "",
		"two/lib.ts": "",
	})
	mk := func(ns, dir string) *resolve.Resolver {
		return newResolver(host.Module, resolve.Options{
			Namespace: ns,
			Aliases: tsconfig.NewAliasTable([]tsconfig.PathEntry{
				{Pattern: "#lib", Candidates: []string{"./" + dir + "/lib"}},
			}, root, ""),
		})
	}
	one, two := mk("one", "one"), mk("two", "two")
	ctx := context.Background()

	done := make(chan modspec.Resolved, 2)
	go func() {
		res, _ := one.Resolve(ctx, "#lib", modspec.Context{Parent: filepath.Join(root, "main.ts"), Namespace: "one"})
		done <- res
	}()
	resTwo, err := two.Resolve(ctx, "#lib?srcload-namespace=two", fromTS(root))
	require.NoError(t, err)
	resOne := <-done

	assert.Equal(t, filepath.Join(root, "one", "lib.ts"), resOne.Path)
	assert.Equal(t, filepath.Join(root, "two", "lib.ts"), resTwo.Path)

	// A request tagged for "one" bypasses "two" entirely.
	_, err = two.Resolve(ctx, "#lib", modspec.Context{Parent: filepath.Join(root, "main.ts") + "?srcload-namespace=one"})
	assert.True(t, resolve.IsNotFound(err))
}

func TestResolvePackageEntrySecondChance(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"main.js":                         "",
		"node_modules/tspkg/package.json": `{"main": "src/index"}`,
		"node_modules/tspkg/src/index.ts": "",
	})
	ctx := context.Background()
	parent := modspec.Context{Parent: filepath.Join(root, "main.js")}

	cjs := newResolver(host.CommonJS, resolve.Options{})
	res, err := cjs.Resolve(ctx, "tspkg", parent)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "node_modules", "tspkg", "src", "index.ts"), res.Path)

	esm := newResolver(host.Module, resolve.Options{})
	_, err = esm.Resolve(ctx, "tspkg", parent)
	assert.True(t, resolve.IsNotFound(err), "ESM hosts do not read main a second time")
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{"main.ts": "", "a.ts": "", "a.js": ""})
	r := newResolver(host.CommonJS, resolve.Options{})

	first, err := r.Resolve(context.Background(), "./a", fromTS(root))
	require.NoError(t, err)
	for range 5 {
		again, err := r.Resolve(context.Background(), "./a", fromTS(root))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// failingHost returns a fixed error for every request.
type failingHost struct{ err error }

func (h failingHost) Resolve(context.Context, modspec.Specifier, modspec.Context) (modspec.Resolved, error) {
	return modspec.Resolved{}, h.err
}

func (h failingHost) Load(context.Context, modspec.Resolved) (*resolve.LoadResult, error) {
	return nil, h.err
}

func (failingHost) Capabilities() resolve.Capabilities { return resolve.Capabilities{} }

func TestResolveErrorHandling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unstructured not-found message is cleaned", func(t *testing.T) {
		t.Parallel()
		r := resolve.New(resolve.Options{Host: failingHost{err: errors.New("Cannot find module './x.ts'")}})
		_, err := r.Resolve(ctx, "./x", modspec.Context{Parent: "/p/main.ts"})
		var nf *resolve.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "./x", nf.Specifier)
		assert.Equal(t, "Cannot find module './x'", nf.Detail)
	})

	t.Run("other errors propagate unchanged", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("permission denied")
		r := resolve.New(resolve.Options{Host: failingHost{err: boom}})
		_, err := r.Resolve(ctx, "./x", modspec.Context{Parent: "/p/main.ts"})
		assert.Same(t, boom, err)
	})
}
