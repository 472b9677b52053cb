// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("module not found")

	// ErrUnsupported is the sentinel error wrapped by UnsupportedError.
	ErrUnsupported = errors.New("unsupported import")

	// ErrInvalidManifest is the sentinel error wrapped by ManifestError.
	ErrInvalidManifest = errors.New("invalid package manifest")
)

type (
	// NotFoundError reports a specifier that no resolution step could find.
	NotFoundError struct {
		Specifier string
		Parent    string
		// Detail is an optional host message, already cleaned of
		// intermediate specifiers.
		Detail string
	}

	// UnsupportedError reports an import the host refuses to perform, such
	// as an explicit directory import in an ESM host.
	UnsupportedError struct {
		Specifier string
		Reason    string
		// Directory marks a refused directory import.
		Directory bool
	}

	// ManifestError reports a package.json that could not be parsed.
	ManifestError struct {
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cannot find module '%s'", e.Specifier)
	if e.Parent != "" {
		fmt.Fprintf(&sb, " imported from %s", e.Parent)
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported import '%s': %s", e.Specifier, e.Reason)
}

// Unwrap returns ErrUnsupported for errors.Is() compatibility.
func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Error implements the error interface.
func (e *ManifestError) Error() string {
	return fmt.Sprintf("package manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrInvalidManifest and the parse error.
func (e *ManifestError) Unwrap() []error { return []error{ErrInvalidManifest, e.Err} }

// notFoundMarkers are host message fragments that identify a not-found
// failure when the host returns an unstructured error.
var notFoundMarkers = []string{
	"Cannot find module",
	"ERR_MODULE_NOT_FOUND",
	"cannot find module",
}

// IsNotFound reports whether err is a not-found failure. Structured errors
// are checked first; matching on the message text is a fallback for hosts
// that return plain errors.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	msg := err.Error()
	for _, marker := range notFoundMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsDirectoryImport reports whether err is a refused directory import.
func IsDirectoryImport(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue) && ue.Directory
}

// stripSynthetic removes suffixes the resolver appended to original while
// probing, so messages name the specifier the caller wrote.
func stripSynthetic(msg, original string, suffixes []string) string {
	if original == "" {
		return msg
	}
	base := strings.TrimSuffix(original, "/")
	for _, suffix := range suffixes {
		msg = strings.ReplaceAll(msg, base+"/index"+suffix, original)
		msg = strings.ReplaceAll(msg, base+suffix, original)
	}
	return msg
}
