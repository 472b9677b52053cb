// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"bytes"
	"encoding/json"

	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Options describe one transform request.
	Options struct {
		// Format is the module format the output must have.
		Format modspec.Format `json:"format"`
		// SourcePath names the input in diagnostics and source maps.
		SourcePath string `json:"sourcePath"`
		// JSX overrides the backend's JSX defaults.
		JSX *JSXOptions `json:"jsx,omitempty"`
		// Backend carries backend-specific settings.
		Backend json.RawMessage `json:"backend,omitempty"`
	}

	// JSXOptions mirror the tsconfig JSX compiler options.
	JSXOptions struct {
		Mode         string `json:"mode,omitempty"`
		Factory      string `json:"factory,omitempty"`
		Fragment     string `json:"fragment,omitempty"`
		ImportSource string `json:"importSource,omitempty"`
	}
)

// keyBytes serializes opts for the cache key. Field order is fixed by the
// struct and the backend payload is compacted, so equal options always
// produce equal bytes.
func (o Options) keyBytes() ([]byte, error) {
	if len(o.Backend) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, o.Backend); err != nil {
			return nil, err
		}
		o.Backend = buf.Bytes()
	}
	return json.Marshal(o)
}
