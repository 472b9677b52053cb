// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/srcload/srcload/internal/resolve"
	"github.com/srcload/srcload/pkg/modspec"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func TestCommonJSResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.js":                         "",
		"util.js":                         "",
		"data.json":                       "{}",
		"lib/package.json":                `{"main": "./entry"}`,
		"lib/entry.js":                    "",
		"plain/index.js":                  "",
		"node_modules/dep/package.json":   `{"main": "dist/index.js"}`,
		"node_modules/dep/dist/index.js":  "",
		"node_modules/@s/pkg/index.js":    "",
		"node_modules/@s/pkg/sub/file.js": "",
		"node_modules/exp/package.json":   `{"exports": {"require": "./c.cjs", "import": "./m.mjs"}}`,
		"node_modules/exp/c.cjs":          "",
		"node_modules/exp/m.mjs":          "",
	})
	h := New(CommonJS)
	parent := modspec.Context{Parent: filepath.Join(root, "main.js")}
	ctx := context.Background()

	tests := []struct {
		spec string
		want string
	}{
		{"./util", "util.js"},
		{"./data", "data.json"},
		{"./lib", "lib/entry.js"},
		{"./plain/", "plain/index.js"},
		{"dep", "node_modules/dep/dist/index.js"},
		{"@s/pkg", "node_modules/@s/pkg/index.js"},
		{"@s/pkg/sub/file", "node_modules/@s/pkg/sub/file.js"},
		{"exp", "node_modules/exp/c.cjs"},
	}
	for _, tt := range tests {
		res, err := h.Resolve(ctx, modspec.Specifier(tt.spec), parent)
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", tt.spec, err)
			continue
		}
		if want := filepath.Join(root, filepath.FromSlash(tt.want)); res.Path != want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.spec, res.Path, want)
		}
	}

	_, err := h.Resolve(ctx, "./missing", parent)
	var nf *resolve.NotFoundError
	if !errors.As(err, &nf) || nf.Specifier != "./missing" {
		t.Errorf("missing module error = %v", err)
	}

	_, err = h.Resolve(ctx, "./util.js/", parent)
	if !resolve.IsNotFound(err) {
		t.Errorf("trailing slash on a file must not resolve, got %v", err)
	}

	if caps := h.Capabilities(); !caps.Sync || !caps.CommonJS || caps.AcceptsQuery {
		t.Errorf("unexpected capabilities %+v", caps)
	}
}

func TestModuleResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"package.json":                  `{"type": "module"}`,
		"main.js":                       "",
		"util.js":                       "",
		"dir/index.js":                  "",
		"node_modules/exp/package.json": `{"exports": {".": {"import": "./m.mjs", "default": "./c.cjs"}, "./feature": "./f.js"}}`,
		"node_modules/exp/m.mjs":        "",
		"node_modules/exp/f.js":         "",
	})
	h := New(Module)
	parent := modspec.Context{Parent: filepath.Join(root, "main.js")}
	ctx := context.Background()

	res, err := h.Resolve(ctx, "./util.js?v=1", parent)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Path != filepath.Join(root, "util.js") || res.Query != "?v=1" || res.Format != modspec.FormatModule {
		t.Errorf("unexpected %+v", res)
	}

	if _, err := h.Resolve(ctx, "./util", parent); !resolve.IsNotFound(err) {
		t.Errorf("ESM must not probe extensions, got %v", err)
	}

	_, err = h.Resolve(ctx, "./dir", parent)
	if !resolve.IsDirectoryImport(err) {
		t.Errorf("directory import should be refused, got %v", err)
	}
	var ue *resolve.UnsupportedError
	if errors.As(err, &ue) && ue.Specifier != "./dir" {
		t.Errorf("unsupported error specifier = %q", ue.Specifier)
	}

	res, err = h.Resolve(ctx, "exp", parent)
	if err != nil || res.Path != filepath.Join(root, "node_modules/exp/m.mjs") {
		t.Errorf("exp = %+v, %v", res, err)
	}
	res, err = h.Resolve(ctx, "exp/feature", parent)
	if err != nil || res.Path != filepath.Join(root, "node_modules/exp/f.js") {
		t.Errorf("exp/feature = %+v, %v", res, err)
	}
	if _, err := h.Resolve(ctx, "exp/hidden", parent); !resolve.IsNotFound(err) {
		t.Errorf("unexported subpath must not resolve, got %v", err)
	}

	res, err = h.Resolve(ctx, "fs", parent)
	if err != nil || res.Path != "node:fs" || res.Format != modspec.FormatBuiltin {
		t.Errorf("fs = %+v, %v", res, err)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.mjs": "export default 1"})
	h := New(Module)
	ctx := context.Background()

	lr, err := h.Load(ctx, modspec.Resolved{Path: filepath.Join(root, "a.mjs")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lr.Format != modspec.FormatModule || string(lr.Source) != "export default 1" {
		t.Errorf("unexpected %+v", lr)
	}

	lr, err = h.Load(ctx, modspec.Resolved{Path: "data:text/javascript;base64,ZXhwb3J0IGRlZmF1bHQgMg=="})
	if err != nil || string(lr.Source) != "export default 2" {
		t.Errorf("data URL load = %+v, %v", lr, err)
	}

	lr, err = h.Load(ctx, modspec.Resolved{Path: "node:fs", Format: modspec.FormatBuiltin})
	if err != nil || lr.Source != nil || lr.Format != modspec.FormatBuiltin {
		t.Errorf("builtin load = %+v, %v", lr, err)
	}
}

func TestParseFlavor(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Flavor{"cjs": CommonJS, "ESM": Module, "module": Module} {
		got, err := ParseFlavor(in)
		if err != nil || got != want {
			t.Errorf("ParseFlavor(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFlavor("amd"); err == nil {
		t.Error("expected error for unknown flavor")
	}
}
