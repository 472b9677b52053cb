// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"path/filepath"
	"strings"
)

// Loader selects how a backend parses a file.
type Loader string

const (
	LoaderJS   Loader = "js"
	LoaderJSX  Loader = "jsx"
	LoaderTS   Loader = "ts"
	LoaderTSX  Loader = "tsx"
	LoaderJSON Loader = "json"
)

// LoaderFor picks the loader by extension. Unknown extensions are parsed
// as JavaScript.
func LoaderFor(path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LoaderTS
	case ".tsx":
		return LoaderTSX
	case ".jsx":
		return LoaderJSX
	case ".json":
		return LoaderJSON
	default:
		return LoaderJS
	}
}
