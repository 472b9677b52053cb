// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	"path/filepath"
	"strings"
)

type (
	// AliasRule is one compiled paths pattern.
	AliasRule struct {
		// Pattern is the pattern as declared, e.g. "@/*".
		Pattern string
		// Candidates are the substitutions, resolved against the paths base.
		Candidates []string

		prefix   string
		suffix   string
		wildcard bool
	}

	// AliasTable maps bare specifiers to candidate paths. It is immutable
	// once built and safe for concurrent use.
	AliasTable struct {
		rules   []AliasRule
		baseURL string
	}
)

// NewAliasTable compiles entries whose candidates resolve against base.
// A non-empty baseURL makes every bare specifier that matches no rule a
// single candidate under baseURL.
func NewAliasTable(entries []PathEntry, base, baseURL string) *AliasTable {
	return newAliasTable(entries, base, baseURL)
}

func newAliasTable(entries []PathEntry, base, baseURL string) *AliasTable {
	t := &AliasTable{baseURL: baseURL, rules: make([]AliasRule, 0, len(entries))}
	for _, e := range entries {
		rule := AliasRule{Pattern: e.Pattern}
		if i := strings.IndexByte(e.Pattern, '*'); i >= 0 {
			rule.prefix, rule.suffix, rule.wildcard = e.Pattern[:i], e.Pattern[i+1:], true
		} else {
			rule.prefix = e.Pattern
		}
		for _, c := range e.Candidates {
			if !filepath.IsAbs(c) {
				c = filepath.Join(base, filepath.FromSlash(c))
			}
			rule.Candidates = append(rule.Candidates, c)
		}
		t.rules = append(t.rules, rule)
	}
	return t
}

// Rules returns the compiled rules in declaration order.
func (t *AliasTable) Rules() []AliasRule {
	return append([]AliasRule(nil), t.rules...)
}

// Empty reports whether the table can never produce a candidate.
func (t *AliasTable) Empty() bool {
	return t == nil || (len(t.rules) == 0 && t.baseURL == "")
}

// Match returns the candidate paths for spec from the first rule, in
// declaration order, that matches it. A "*" captures the rest of the
// specifier between the pattern's prefix and suffix. When no rule matches
// and a baseUrl is configured, the specifier is tried under it.
func (t *AliasTable) Match(spec string) []string {
	if t == nil {
		return nil
	}
	for _, r := range t.rules {
		captured, ok := r.match(spec)
		if !ok {
			continue
		}
		out := make([]string, 0, len(r.Candidates))
		for _, c := range r.Candidates {
			out = append(out, strings.Replace(c, "*", captured, 1))
		}
		return out
	}
	if t.baseURL != "" {
		return []string{filepath.Join(t.baseURL, filepath.FromSlash(spec))}
	}
	return nil
}

func (r AliasRule) match(spec string) (string, bool) {
	if !r.wildcard {
		return "", spec == r.prefix
	}
	if len(spec) < len(r.prefix)+len(r.suffix) {
		return "", false
	}
	if !strings.HasPrefix(spec, r.prefix) || !strings.HasSuffix(spec, r.suffix) {
		return "", false
	}
	return spec[len(r.prefix) : len(spec)-len(r.suffix)], true
}
