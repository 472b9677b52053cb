// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExclude applies when "exclude" is unset.
var defaultExclude = []string{"**/node_modules/**"}

// FileMatcher answers whether a file belongs to the project described by
// files/include/exclude. Patterns are absolute, slash-separated globs.
type FileMatcher struct {
	files   []string
	include []string
	exclude []string
}

func newFileMatcher(dir string, files, include, exclude []string) *FileMatcher {
	m := &FileMatcher{
		files:   absPatterns(dir, files, false),
		include: absPatterns(dir, include, true),
		exclude: absPatterns(dir, exclude, true),
	}
	if files == nil && include == nil {
		m.include = absPatterns(dir, []string{"**/*"}, true)
	}
	if exclude == nil {
		m.exclude = absPatterns(dir, defaultExclude, false)
	}
	return m
}

// absPatterns anchors patterns at dir. Include-style patterns that name a
// directory (no wildcard, no extension) match everything below it.
func absPatterns(dir string, patterns []string, dirExpand bool) []string {
	if patterns == nil {
		return nil
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !filepath.IsAbs(p) && !strings.HasPrefix(p, "/") {
			p = filepath.Join(dir, filepath.FromSlash(p))
		}
		p = filepath.ToSlash(p)
		if dirExpand && !strings.ContainsAny(p, "*?[{") && filepath.Ext(p) == "" {
			p = strings.TrimSuffix(p, "/") + "/**/*"
		}
		out = append(out, p)
	}
	return out
}

// Includes reports whether path is part of the project. Files listed in
// "files" are always included; other files must match an include pattern
// and no exclude pattern.
func (m *FileMatcher) Includes(path string) bool {
	if m == nil {
		return true
	}
	p := filepath.ToSlash(path)
	for _, f := range m.files {
		if f == p {
			return true
		}
	}
	if !matchAny(m.include, p) {
		return false
	}
	return !matchAny(m.exclude, p)
}

func matchAny(patterns []string, path string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, path); err == nil && ok {
			return true
		}
	}
	return false
}
