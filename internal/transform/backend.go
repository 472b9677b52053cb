// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/srcload/srcload/pkg/modspec"
)

type (
	// Backend compiles one source file. Implementations must be safe for
	// concurrent use.
	Backend interface {
		// Name identifies the backend in cache keys.
		Name() string
		// Version changes whenever the backend's output may change.
		Version() string
		// Transform compiles source. Compile failures are reported as a
		// *BackendError.
		Transform(source string, opts BackendOptions) (*BackendResult, error)
	}

	// BackendOptions are the per-call settings handed to a Backend.
	BackendOptions struct {
		Loader     Loader
		Format     modspec.Format
		Sourcefile string
		// Define replaces global expressions with code.
		Define map[string]string
		// Banner is prepended to the output.
		Banner string
		JSX    *JSXOptions
		// Extra carries backend-specific settings verbatim.
		Extra json.RawMessage
	}

	// BackendResult is a successful compilation.
	BackendResult struct {
		Code string
		// Map is the raw source map JSON, or nil.
		Map      []byte
		Warnings []Diagnostic
	}

	// Diagnostic is one backend message. Plugin, Detail and Notes are
	// backend metadata that never reaches callers of a Transformer.
	Diagnostic struct {
		Text     string
		File     string
		Line     int // 1-based; 0 when unknown
		Column   int // 0-based
		LineText string
		Plugin   string
		Detail   any
		Notes    []string
	}

	// BackendError is a compile failure with at least one diagnostic.
	BackendError struct {
		Diagnostics []Diagnostic
	}
)

// Error implements the error interface.
func (e *BackendError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "transform failed"
	}
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "\n")
}

// String renders the diagnostic as "file:line:column: text".
func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Text
	}
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.File, d.Text)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}
