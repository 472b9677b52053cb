// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

var (
	// ErrSchema is the sentinel error wrapped by SchemaError.
	ErrSchema = errors.New("schema validation failed")

	// ErrFileTooLarge is the sentinel error wrapped by FileSizeError.
	ErrFileTooLarge = errors.New("file too large")
)

type (
	// Issue is one problem reported by CUE, located by a JSON path such as
	// compilerOptions.paths["@/*"][0].
	Issue struct {
		Path    string
		Message string
	}

	// SchemaError lists every issue CUE found in one document.
	SchemaError struct {
		File   string
		Issues []Issue
	}

	// FileSizeError reports a document over the parse size limit.
	FileSizeError struct {
		File  string
		Size  int64
		Limit int64
	}
)

// Error renders a single issue inline and several as an indented list.
func (e *SchemaError) Error() string {
	lines := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		lines[i] = is.String()
	}
	if len(lines) == 1 {
		return e.File + ": " + lines[0]
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
}

// Unwrap returns ErrSchema for errors.Is() compatibility.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// String returns "<path>: <message>", or the message when there is no path.
func (is Issue) String() string {
	if is.Path == "" {
		return is.Message
	}
	return is.Path + ": " + is.Message
}

// Error implements the error interface.
func (e *FileSizeError) Error() string {
	return fmt.Sprintf("%s: file size %d bytes exceeds maximum %d bytes", e.File, e.Size, e.Limit)
}

// Unwrap returns ErrFileTooLarge for errors.Is() compatibility.
func (e *FileSizeError) Unwrap() error { return ErrFileTooLarge }

// FormatError converts a CUE error into a *SchemaError for file. Errors
// CUE does not recognize are wrapped with the file name.
func FormatError(err error, file string) error {
	if err == nil {
		return nil
	}
	// cueerrors.Errors promotes any error to a one-element list.
	var ce cueerrors.Error
	if !errors.As(err, &ce) {
		return fmt.Errorf("%s: %w", file, err)
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	se := &SchemaError{File: file, Issues: make([]Issue, 0, len(list))}
	for _, e := range list {
		path := jsonPath(cueerrors.Path(e))
		msg := e.Error()
		// CUE sometimes repeats the path at the start of the message.
		if path != "" {
			if rest, ok := strings.CutPrefix(msg, path); ok {
				msg = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			}
		}
		se.Issues = append(se.Issues, Issue{Path: path, Message: msg})
	}
	return se
}

// jsonPath joins CUE path elements with dots, writing numeric elements
// after the first as [n] indices.
func jsonPath(elems []string) string {
	var sb strings.Builder
	for i, el := range elems {
		switch {
		case i > 0 && isIndex(el):
			sb.WriteString("[" + el + "]")
		case i > 0:
			sb.WriteString("." + el)
		default:
			sb.WriteString(el)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns a *FileSizeError when data is larger than limit.
func CheckFileSize(data []byte, limit int64, file string) error {
	if size := int64(len(data)); size > limit {
		return &FileSizeError{File: file, Size: size, Limit: limit}
	}
	return nil
}
