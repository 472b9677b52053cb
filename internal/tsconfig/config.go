// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/srcload/srcload/pkg/cueutil"

	"github.com/tailscale/hujson"
)

// FileName is the project file name searched for by Find.
const FileName = "tsconfig.json"

//go:embed tsconfig_schema.cue
var schema []byte

type (
	// Config is a loaded project file with its extends chain applied and
	// every path made absolute.
	Config struct {
		// Path is the tsconfig.json the config was loaded from.
		Path string
		// BaseURL is the absolute compilerOptions.baseUrl, or "" when unset.
		BaseURL string
		// Paths holds compilerOptions.paths in declaration order.
		Paths []PathEntry
		// PathsBase is the directory alias candidates resolve against:
		// BaseURL when set, otherwise the directory of the file that
		// declared paths.
		PathsBase string
		// AllowJS mirrors compilerOptions.allowJs.
		AllowJS bool
		// JSX holds the JSX compiler options.
		JSX JSXOptions

		matcher *FileMatcher
	}

	// PathEntry is one compilerOptions.paths pattern with its candidates.
	PathEntry struct {
		Pattern    string
		Candidates []string
	}

	// JSXOptions are the JSX settings forwarded to the transform backend.
	JSXOptions struct {
		Mode         string `json:"mode,omitempty"`
		Factory      string `json:"factory,omitempty"`
		Fragment     string `json:"fragment,omitempty"`
		ImportSource string `json:"importSource,omitempty"`
	}

	rawConfig struct {
		Extends         any                `json:"extends,omitempty"`
		CompilerOptions rawCompilerOptions `json:"compilerOptions,omitempty"`
		Files           []string           `json:"files,omitempty"`
		Include         []string           `json:"include,omitempty"`
		Exclude         []string           `json:"exclude,omitempty"`
	}

	rawCompilerOptions struct {
		BaseURL            *string             `json:"baseUrl,omitempty"`
		Paths              map[string][]string `json:"paths,omitempty"`
		AllowJS            *bool               `json:"allowJs,omitempty"`
		JSX                *string             `json:"jsx,omitempty"`
		JSXFactory         *string             `json:"jsxFactory,omitempty"`
		JSXFragmentFactory *string             `json:"jsxFragmentFactory,omitempty"`
		JSXImportSource    *string             `json:"jsxImportSource,omitempty"`
	}
)

// Load reads the project file at path and applies its extends chain.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	cfg := &Config{Path: abs}
	if err := cfg.apply(abs, map[string]bool{}); err != nil {
		return nil, err
	}
	if cfg.matcher == nil {
		cfg.matcher = newFileMatcher(filepath.Dir(abs), nil, nil, nil)
	}
	if err := cfg.validatePaths(); err != nil {
		return nil, &ConfigError{Path: abs, Err: err}
	}
	return cfg, nil
}

// Dir returns the directory holding the project file.
func (c *Config) Dir() string { return filepath.Dir(c.Path) }

// Matcher returns the files/include/exclude matcher of the project.
func (c *Config) Matcher() *FileMatcher { return c.matcher }

// Aliases compiles the path alias table of the project.
func (c *Config) Aliases() *AliasTable {
	return newAliasTable(c.Paths, c.PathsBase, c.BaseURL)
}

// apply loads path's bases first, then overlays path's own settings.
func (c *Config) apply(path string, seen map[string]bool) error {
	if seen[path] {
		return &ConfigError{Path: path, Err: ErrExtendsCycle}
	}
	seen[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	res, err := cueutil.ParseAndDecode[rawConfig](schema, data, "#TSConfig",
		cueutil.WithFilename(path), cueutil.WithJSONC(true))
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	raw := res.Value
	dir := filepath.Dir(path)

	for _, ext := range extendsList(raw.Extends) {
		base, err := resolveExtends(ext, dir)
		if err != nil {
			return &ConfigError{Path: path, Err: err}
		}
		if err := c.apply(base, seen); err != nil {
			return err
		}
	}

	opts := raw.CompilerOptions
	if opts.BaseURL != nil {
		c.BaseURL = filepath.Clean(filepath.Join(dir, *opts.BaseURL))
		if c.Paths != nil {
			c.PathsBase = c.BaseURL
		}
	}
	if opts.Paths != nil {
		c.Paths = orderPaths(data, opts.Paths)
		if c.BaseURL != "" {
			c.PathsBase = c.BaseURL
		} else {
			c.PathsBase = dir
		}
	}
	if opts.AllowJS != nil {
		c.AllowJS = *opts.AllowJS
	}
	if opts.JSX != nil {
		c.JSX.Mode = *opts.JSX
	}
	if opts.JSXFactory != nil {
		c.JSX.Factory = *opts.JSXFactory
	}
	if opts.JSXFragmentFactory != nil {
		c.JSX.Fragment = *opts.JSXFragmentFactory
	}
	if opts.JSXImportSource != nil {
		c.JSX.ImportSource = *opts.JSXImportSource
	}

	if raw.Files != nil || raw.Include != nil || raw.Exclude != nil {
		prev := c.matcher
		files, include, exclude := raw.Files, raw.Include, raw.Exclude
		if prev != nil {
			// Unset lists are inherited from the base, already absolute.
			if files == nil && prev.files != nil {
				files = prev.files
			}
			if include == nil && prev.include != nil {
				include = prev.include
			}
			if exclude == nil && prev.exclude != nil {
				exclude = prev.exclude
			}
		}
		c.matcher = newFileMatcher(dir, files, include, exclude)
	}
	return nil
}

func (c *Config) validatePaths() error {
	for _, p := range c.Paths {
		if strings.Count(p.Pattern, "*") > 1 {
			return fmt.Errorf("paths pattern %q may contain at most one '*'", p.Pattern)
		}
		for _, cand := range p.Candidates {
			if strings.Count(cand, "*") > 1 {
				return fmt.Errorf("paths substitution %q for %q may contain at most one '*'", cand, p.Pattern)
			}
		}
	}
	return nil
}

func extendsList(v any) []string {
	switch ext := v.(type) {
	case string:
		return []string{ext}
	case []any:
		out := make([]string, 0, len(ext))
		for _, e := range ext {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// orderPaths returns the paths entries in the order the document declares
// them. Decoding through a map loses that order, so the keys are read from
// the syntax tree.
func orderPaths(data []byte, paths map[string][]string) []PathEntry {
	keys := pathKeys(data)
	out := make([]PathEntry, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, k := range keys {
		cands, ok := paths[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, PathEntry{Pattern: k, Candidates: cands})
	}
	// Keys the tree walk could not see (should not happen) keep map order.
	for k, cands := range paths {
		if !seen[k] {
			out = append(out, PathEntry{Pattern: k, Candidates: cands})
		}
	}
	return out
}

func pathKeys(data []byte) []string {
	root, err := hujson.Parse(data)
	if err != nil {
		return nil
	}
	opts := member(&root, "compilerOptions")
	if opts == nil {
		return nil
	}
	paths := member(opts, "paths")
	if paths == nil {
		return nil
	}
	obj, ok := paths.Value.(*hujson.Object)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj.Members))
	for _, m := range obj.Members {
		if lit, ok := m.Name.Value.(hujson.Literal); ok {
			keys = append(keys, lit.String())
		}
	}
	return keys
}

func member(v *hujson.Value, name string) *hujson.Value {
	obj, ok := v.Value.(*hujson.Object)
	if !ok {
		return nil
	}
	for i := range obj.Members {
		if lit, ok := obj.Members[i].Name.Value.(hujson.Literal); ok && lit.String() == name {
			return &obj.Members[i].Value
		}
	}
	return nil
}
