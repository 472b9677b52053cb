// SPDX-License-Identifier: MPL-2.0

package resolve

import "path/filepath"

// DefaultExtensions is the probe order for implicit extensions. TypeScript
// sources come before their compiled siblings.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs", ".json"}

// SupersetExtensions are tried for extensionless requests from TypeScript
// importers before the host sees them.
var SupersetExtensions = []string{".ts", ".tsx"}

// mappedExtensions lists, per host extension, the TypeScript extensions
// whose source compiles to it.
var mappedExtensions = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx", ".ts"},
	".cjs": {".cts"},
	".mjs": {".mts"},
}

// moduleExtensions are extensions that make a request "explicit": anything
// else (including ".config" in "./vite.config") counts as extensionless.
var moduleExtensions = map[string]bool{
	".js": true, ".jsx": true, ".cjs": true, ".mjs": true,
	".ts": true, ".tsx": true, ".cts": true, ".mts": true,
	".json": true, ".node": true,
}

// Probe is the ordered list of candidate extensions.
type Probe struct {
	extensions []string
}

// NewProbe creates a probe with the given extensions, or DefaultExtensions
// when none are given.
func NewProbe(extensions ...string) *Probe {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Probe{extensions: append([]string(nil), extensions...)}
}

// Extensions returns the probe order.
func (p *Probe) Extensions() []string {
	return append([]string(nil), p.extensions...)
}

// Candidates returns base with each extension appended, in order.
func (p *Probe) Candidates(base string) []string {
	out := make([]string, len(p.extensions))
	for i, ext := range p.extensions {
		out[i] = base + ext
	}
	return out
}

// Mapped returns the TypeScript extensions shadowing a host extension.
func Mapped(ext string) ([]string, bool) {
	m, ok := mappedExtensions[ext]
	return m, ok
}

// hasModuleExtension reports whether path ends in a known module extension.
func hasModuleExtension(path string) bool {
	return moduleExtensions[filepath.Ext(path)]
}
