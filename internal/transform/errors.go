// SPDX-License-Identifier: MPL-2.0

package transform

import (
	"errors"
	"fmt"
)

// ErrorName is the Name of every *Error.
const ErrorName = "TransformError"

// ErrTransform is the sentinel error wrapped by Error.
var ErrTransform = errors.New("transform failed")

// Error is a normalized compile failure. It keeps the location of the
// first diagnostic and drops backend metadata.
type Error struct {
	Name     string
	Message  string
	File     string
	Line     int // 1-based; 0 when unknown
	Column   int // 0-based
	LineText string
}

// Error renders like a compiler diagnostic against the original file.
func (e *Error) Error() string {
	switch {
	case e.File == "":
		return e.Message
	case e.Line == 0:
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	default:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
}

// Unwrap returns ErrTransform for errors.Is() compatibility.
func (e *Error) Unwrap() error { return ErrTransform }

// normalize converts a backend failure into an *Error. The first
// diagnostic wins; a diagnostic without a file is attributed to
// sourcePath.
func normalize(err error, sourcePath string) *Error {
	out := &Error{Name: ErrorName, File: sourcePath}
	var be *BackendError
	if !errors.As(err, &be) || len(be.Diagnostics) == 0 {
		out.Message = err.Error()
		return out
	}
	d := be.Diagnostics[0]
	out.Message = d.Text
	if d.File != "" {
		out.File = d.File
	}
	out.Line, out.Column, out.LineText = d.Line, d.Column, d.LineText
	return out
}
