// SPDX-License-Identifier: MPL-2.0

package tsconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by ConfigError.
	ErrInvalidConfig = errors.New("invalid tsconfig")

	// ErrNotFound is returned by Find when no tsconfig.json exists on the
	// path from the start directory to the filesystem root.
	ErrNotFound = errors.New("tsconfig.json not found")

	// ErrExtendsCycle is returned when an extends chain revisits a file.
	ErrExtendsCycle = errors.New("extends cycle")
)

// ConfigError reports a tsconfig file that could not be read, parsed, or
// validated.
type ConfigError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("tsconfig %s: %v", e.Path, e.Err)
}

// Unwrap returns both ErrInvalidConfig and the underlying cause.
func (e *ConfigError) Unwrap() []error { return []error{ErrInvalidConfig, e.Err} }
