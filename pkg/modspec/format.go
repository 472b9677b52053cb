// SPDX-License-Identifier: MPL-2.0

package modspec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// FormatUnknown means the host did not determine a format.
	FormatUnknown Format = ""
	// FormatCommonJS is a require()-style module.
	FormatCommonJS Format = "commonjs"
	// FormatModule is an ECMAScript module.
	FormatModule Format = "module"
	// FormatJSON is a JSON document loaded as a module.
	FormatJSON Format = "json"
	// FormatBuiltin is a module provided by the host itself.
	FormatBuiltin Format = "builtin"
)

// ErrInvalidFormat is the sentinel error wrapped by InvalidFormatError.
var ErrInvalidFormat = errors.New("invalid module format")

type (
	// Format is the module system a resolved location is loaded with.
	Format string

	// InvalidFormatError is returned when a Format value is not recognized.
	InvalidFormatError struct {
		Value Format
	}
)

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid module format %q (valid: commonjs, module, json, builtin)", e.Value)
}

// Unwrap returns ErrInvalidFormat for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// String returns the string representation of the Format.
func (f Format) String() string { return string(f) }

// IsValid returns whether the Format is one of the known formats.
// The zero value (FormatUnknown) is valid.
func (f Format) IsValid() (bool, []error) {
	switch f {
	case FormatUnknown, FormatCommonJS, FormatModule, FormatJSON, FormatBuiltin:
		return true, nil
	default:
		return false, []error{&InvalidFormatError{Value: f}}
	}
}

// ParseFormat maps the short flag spellings to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cjs", "commonjs":
		return FormatCommonJS, nil
	case "esm", "module":
		return FormatModule, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatUnknown, &InvalidFormatError{Value: Format(s)}
	}
}

// supersetExtensions are the source extensions the host cannot run natively.
var supersetExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

// IsSupersetPath reports whether path names TypeScript source.
func IsSupersetPath(path string) bool {
	return supersetExtensions[filepath.Ext(path)]
}

// IsTransformable reports whether path names source that goes through
// the transformer: TypeScript, JSX, and plain script files.
func IsTransformable(path string) bool {
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".mts", ".cts", ".jsx", ".js", ".mjs", ".cjs":
		return true
	default:
		return false
	}
}

// FormatForExtension returns the format fixed by a file extension alone,
// or FormatUnknown when the package manifest decides.
func FormatForExtension(path string) Format {
	switch filepath.Ext(path) {
	case ".mts", ".mjs":
		return FormatModule
	case ".cts", ".cjs":
		return FormatCommonJS
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}
