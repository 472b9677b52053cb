// SPDX-License-Identifier: MPL-2.0

// Package esbuild is the default transform backend, built on the esbuild
// transform API.
package esbuild

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/srcload/srcload/internal/transform"
	"github.com/srcload/srcload/pkg/modspec"

	"github.com/evanw/esbuild/pkg/api"
)

const (
	// Name identifies the backend in cache keys.
	Name = "esbuild"

	modulePath = "github.com/evanw/esbuild"
)

type (
	// Backend compiles through esbuild. The zero value is ready to use.
	Backend struct{}

	// extra are the settings accepted in transform.Options.Backend.
	extra struct {
		Target           string `json:"target"`
		KeepNames        bool   `json:"keepNames"`
		MinifyWhitespace bool   `json:"minifyWhitespace"`
		MinifySyntax     bool   `json:"minifySyntax"`
		TsconfigRaw      string `json:"tsconfigRaw"`
	}
)

var buildVersion = sync.OnceValue(func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath {
			if dep.Replace != nil {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return "unknown"
})

// New creates the esbuild backend.
func New() *Backend { return &Backend{} }

// Name implements transform.Backend.
func (*Backend) Name() string { return Name }

// Version implements transform.Backend. It is the esbuild module version
// recorded in the binary.
func (*Backend) Version() string { return buildVersion() }

// Transform implements transform.Backend.
func (*Backend) Transform(source string, opts transform.BackendOptions) (*transform.BackendResult, error) {
	topts, err := transformOptions(opts)
	if err != nil {
		return nil, err
	}
	result := api.Transform(source, topts)
	if len(result.Errors) > 0 {
		return nil, &transform.BackendError{Diagnostics: diagnostics(result.Errors)}
	}
	return &transform.BackendResult{
		Code:     string(result.Code),
		Map:      result.Map,
		Warnings: diagnostics(result.Warnings),
	}, nil
}

func transformOptions(opts transform.BackendOptions) (api.TransformOptions, error) {
	var x extra
	if len(opts.Extra) > 0 {
		if err := json.Unmarshal(opts.Extra, &x); err != nil {
			return api.TransformOptions{}, fmt.Errorf("esbuild options: %w", err)
		}
	}
	target, err := parseTarget(x.Target)
	if err != nil {
		return api.TransformOptions{}, err
	}

	t := api.TransformOptions{
		Loader:           loaders[opts.Loader],
		Format:           formats[opts.Format],
		Platform:         api.PlatformNode,
		Target:           target,
		Sourcemap:        api.SourceMapExternal,
		SourcesContent:   api.SourcesContentInclude,
		Sourcefile:       opts.Sourcefile,
		Define:           opts.Define,
		Banner:           opts.Banner,
		KeepNames:        x.KeepNames,
		MinifyWhitespace: x.MinifyWhitespace,
		MinifySyntax:     x.MinifySyntax,
		TsconfigRaw:      x.TsconfigRaw,
		LogLevel:         api.LogLevelSilent,
	}
	if opts.Loader == transform.LoaderJSON {
		// JSON keeps its own shape; a module format would wrap it.
		t.Format = api.FormatDefault
	}
	if opts.JSX != nil {
		applyJSX(&t, opts.JSX)
	}
	return t, nil
}

var loaders = map[transform.Loader]api.Loader{
	transform.LoaderJS:   api.LoaderJS,
	transform.LoaderJSX:  api.LoaderJSX,
	transform.LoaderTS:   api.LoaderTS,
	transform.LoaderTSX:  api.LoaderTSX,
	transform.LoaderJSON: api.LoaderJSON,
	"":                   api.LoaderJS,
}

var formats = map[modspec.Format]api.Format{
	modspec.FormatCommonJS: api.FormatCommonJS,
	modspec.FormatModule:   api.FormatESModule,
}

var targets = map[string]api.Target{
	"":       api.ESNext,
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
}

func parseTarget(s string) (api.Target, error) {
	t, ok := targets[s]
	if !ok {
		return 0, fmt.Errorf("esbuild options: unsupported target %q", s)
	}
	return t, nil
}

// applyJSX maps tsconfig-style JSX settings onto esbuild's.
func applyJSX(t *api.TransformOptions, jsx *transform.JSXOptions) {
	switch jsx.Mode {
	case "react-jsx":
		t.JSX = api.JSXAutomatic
	case "react-jsxdev":
		t.JSX = api.JSXAutomatic
		t.JSXDev = true
	case "preserve", "react-native":
		t.JSX = api.JSXPreserve
	case "react":
		t.JSX = api.JSXTransform
	}
	t.JSXFactory = jsx.Factory
	t.JSXFragment = jsx.Fragment
	t.JSXImportSource = jsx.ImportSource
}

func diagnostics(msgs []api.Message) []transform.Diagnostic {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]transform.Diagnostic, len(msgs))
	for i, m := range msgs {
		d := transform.Diagnostic{
			Text:   m.Text,
			Plugin: m.PluginName,
			Detail: m.Detail,
		}
		if m.Location != nil {
			d.File = m.Location.File
			d.Line = m.Location.Line
			d.Column = m.Location.Column
			d.LineText = m.Location.LineText
		}
		for _, n := range m.Notes {
			d.Notes = append(d.Notes, n.Text)
		}
		out[i] = d
	}
	return out
}
