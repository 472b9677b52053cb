// SPDX-License-Identifier: MPL-2.0

package esbuild

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/srcload/srcload/internal/cache"
	"github.com/srcload/srcload/internal/dynimport"
	"github.com/srcload/srcload/internal/transform"
	"github.com/srcload/srcload/pkg/modspec"
	"github.com/srcload/srcload/pkg/sourcemap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendStripsTypes(t *testing.T) {
	t.Parallel()

	res, err := New().Transform("const x: number = 1;\nexport default x;\n", transform.BackendOptions{
		Loader:     transform.LoaderTS,
		Format:     modspec.FormatModule,
		Sourcefile: "a.ts",
	})
	require.NoError(t, err)
	assert.NotContains(t, res.Code, ": number")
	// esbuild renames the default export to "x_default" and re-exports it.
	assert.Regexp(t, `export\s*\{[^}]*\bas default\b`, res.Code)

	m, err := sourcemap.Parse(res.Map)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, []string{"a.ts"}, m.Sources)
	require.Len(t, m.SourcesContent, 1)
	assert.Contains(t, m.SourcesContent[0], "const x: number")
}

func TestBackendCommonJSDefines(t *testing.T) {
	t.Parallel()

	source := "export const here = import.meta.url;\nexport const dir = import.meta.dirname;\n"
	res, err := New().Transform(source, transform.BackendOptions{
		Loader:     transform.LoaderTS,
		Format:     modspec.FormatCommonJS,
		Sourcefile: "a.ts",
		Define:     transform.DefineFor(modspec.FormatCommonJS),
		Banner:     transform.BannerFor(modspec.FormatCommonJS, source),
	})
	require.NoError(t, err)
	assert.Contains(t, res.Code, "pathToFileURL(__filename)")
	assert.Contains(t, res.Code, "__dirname")
	assert.NotContains(t, res.Code, "import.meta")
}

func TestBackendJSX(t *testing.T) {
	t.Parallel()

	res, err := New().Transform("export const el = <div />;\n", transform.BackendOptions{
		Loader:     transform.LoaderTSX,
		Format:     modspec.FormatModule,
		Sourcefile: "a.tsx",
		JSX:        &transform.JSXOptions{Mode: "react-jsx"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Code, "react/jsx-runtime")

	res, err = New().Transform("export const el = <div />;\n", transform.BackendOptions{
		Loader:     transform.LoaderTSX,
		Format:     modspec.FormatModule,
		Sourcefile: "a.tsx",
		JSX:        &transform.JSXOptions{Mode: "react", Factory: "h"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Code, `h("div"`)
}

func TestBackendErrors(t *testing.T) {
	t.Parallel()

	_, err := New().Transform("const = ;\n", transform.BackendOptions{
		Loader:     transform.LoaderTS,
		Sourcefile: "broken.ts",
	})
	var be *transform.BackendError
	require.True(t, errors.As(err, &be))
	require.NotEmpty(t, be.Diagnostics)
	d := be.Diagnostics[0]
	assert.Equal(t, "broken.ts", d.File)
	assert.Equal(t, 1, d.Line)
	assert.NotEmpty(t, d.Text)

	_, err = New().Transform("", transform.BackendOptions{Extra: []byte(`{"target":"es1999"}`)})
	assert.ErrorContains(t, err, "unsupported target")
}

func TestBackendIdentity(t *testing.T) {
	t.Parallel()

	b := New()
	assert.Equal(t, "esbuild", b.Name())
	assert.NotEmpty(t, b.Version())
	assert.Equal(t, b.Version(), New().Version())
}

// TestTransformerWithEsbuild runs the whole pipeline: type stripping,
// dynamic import interop and a composed map pointing at the TypeScript.
func TestTransformerWithEsbuild(t *testing.T) {
	t.Parallel()

	source := strings.Join([]string{
		`const name: string = "./m.js";`,
		`export async function load(): Promise<unknown> {`,
		`  return await import(name);`,
		`}`,
		``,
	}, "\n")
	tr := transform.New(New(), cache.NewMemory())
	opts := transform.Options{Format: modspec.FormatModule, SourcePath: "/src/a.ts"}

	res, err := tr.Transform(context.Background(), source, opts)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Contains(t, res.Code, dynimport.Interop)
	require.NotNil(t, res.Map)
	assert.Equal(t, []string{"/src/a.ts"}, res.Map.Sources)

	lines := strings.Split(res.Code, "\n")
	found := false
	for i, line := range lines {
		col := strings.Index(line, "import(")
		if col < 0 {
			continue
		}
		p, ok := res.Map.Lookup(i, col)
		require.True(t, ok)
		assert.Equal(t, "/src/a.ts", p.Source)
		assert.Equal(t, 2, p.Line)
		found = true
	}
	assert.True(t, found)

	again, err := tr.TransformSync(source, opts)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.Code, again.Code)

	_, err = tr.TransformSync("const = ;", transform.Options{SourcePath: "/src/b.ts"})
	var te *transform.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, transform.ErrorName, te.Name)
	assert.True(t, strings.HasPrefix(te.Error(), "/src/b.ts:1:"), te.Error())
}
