// SPDX-License-Identifier: MPL-2.0

package modspec

import (
	"net/url"
	"path/filepath"
	"strings"
)

const (
	// NamespaceParam is the query parameter that scopes a request to one
	// registered pipeline.
	NamespaceParam = "srcload-namespace"

	// BuiltinScheme prefixes host built-in module names.
	BuiltinScheme = "node:"
)

const (
	// KindBare is a package name or an alias pattern ("lodash", "@/utils").
	KindBare Kind = iota
	// KindRelative starts with "./", "../", or is "." or "..".
	KindRelative
	// KindAbsolute is a filesystem path or file: URL.
	KindAbsolute
	// KindURL is any other scheme, including data: and node: locations.
	KindURL
)

type (
	// Specifier is the string in an import or require call, possibly with
	// a query suffix.
	Specifier string

	// Kind classifies a Specifier for the resolver.
	Kind int

	// Context describes who is asking for a specifier.
	Context struct {
		// Parent is the canonical location (path or URL) of the importer.
		// Empty for entry points.
		Parent string
		// IsEntryPoint marks the first module run by the host.
		IsEntryPoint bool
		// Namespace is the namespace of the pipeline that issued the request.
		Namespace string
	}

	// Resolved is the result of resolving a Specifier.
	Resolved struct {
		// Path is a filesystem path, or the verbatim URL for data: and
		// built-in locations.
		Path string
		// Format is the module system to load Path with.
		Format Format
		// Query is the query string (with leading "?") to carry with Path.
		Query string
	}
)

// String returns the specifier text.
func (s Specifier) String() string { return string(s) }

// Split separates the query from the path part. The returned query keeps
// its leading "?". data: specifiers are never split.
func (s Specifier) Split() (path, query string) {
	str := string(s)
	if strings.HasPrefix(str, "data:") {
		return str, ""
	}
	if i := strings.IndexByte(str, '?'); i >= 0 {
		return str[:i], str[i:]
	}
	return str, ""
}

// Kind classifies the specifier.
func (s Specifier) Kind() Kind {
	path, _ := s.Split()
	switch {
	case path == "." || path == ".." || strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../"):
		return KindRelative
	case strings.HasPrefix(path, "file:") || filepath.IsAbs(path) || strings.HasPrefix(path, "/"):
		return KindAbsolute
	case hasScheme(path):
		return KindURL
	default:
		return KindBare
	}
}

// IsBuiltin reports whether the specifier names a host built-in by scheme.
func (s Specifier) IsBuiltin() bool {
	return strings.HasPrefix(string(s), BuiltinScheme)
}

// IsData reports whether the specifier is a data: URL.
func (s Specifier) IsData() bool {
	return strings.HasPrefix(string(s), "data:")
}

// HasTrailingSlash reports whether the path part ends with a separator,
// which forbids file fallbacks.
func (s Specifier) HasTrailingSlash() bool {
	path, _ := s.Split()
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator))
}

// hasScheme reports whether s starts with "scheme:" where scheme is at
// least two characters, so Windows drive letters are not mistaken for URLs.
func hasScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i < 2 {
		return false
	}
	for j := range i {
		c := s[j]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if j == 0 && !isAlpha {
			return false
		}
		if !isAlpha && (c < '0' || c > '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

// ToPath converts a file: URL to a filesystem path. Other inputs are
// returned unchanged with any query removed.
func ToPath(location string) string {
	path, _ := Specifier(location).Split()
	if !strings.HasPrefix(path, "file:") {
		return path
	}
	u, err := url.Parse(path)
	if err != nil || u.Path == "" {
		return strings.TrimPrefix(path, "file://")
	}
	return filepath.FromSlash(u.Path)
}

// Namespace returns the value of the namespace query parameter in
// location, or "" when absent.
func Namespace(location string) string {
	_, query := Specifier(location).Split()
	if query == "" {
		return ""
	}
	values, err := url.ParseQuery(query[1:])
	if err != nil {
		return ""
	}
	return values.Get(NamespaceParam)
}

// WithNamespace returns location with the namespace query parameter set
// to ns, keeping any other parameters. An empty ns removes it.
func WithNamespace(location, ns string) string {
	path, query := Specifier(location).Split()
	values := url.Values{}
	if query != "" {
		if parsed, err := url.ParseQuery(query[1:]); err == nil {
			values = parsed
		}
	}
	if ns == "" {
		values.Del(NamespaceParam)
	} else {
		values.Set(NamespaceParam, ns)
	}
	if encoded := values.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

// URL renders the resolved location with its query.
func (r Resolved) URL() string {
	return r.Path + r.Query
}

// WithFormat returns a copy of r with the format replaced.
func (r Resolved) WithFormat(f Format) Resolved {
	r.Format = f
	return r
}

// WithQuery returns a copy of r with the query replaced.
func (r Resolved) WithQuery(query string) Resolved {
	r.Query = query
	return r
}

// IsBuiltin reports whether r is a host built-in.
func (r Resolved) IsBuiltin() bool {
	return r.Format == FormatBuiltin || strings.HasPrefix(r.Path, BuiltinScheme)
}

// IsData reports whether r is a data: location.
func (r Resolved) IsData() bool {
	return strings.HasPrefix(r.Path, "data:")
}
