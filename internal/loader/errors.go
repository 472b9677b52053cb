// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNamespaceInUse is returned when a namespace is registered twice on
	// one chain.
	ErrNamespaceInUse = errors.New("namespace already registered")

	// ErrNilChain is returned when Register is called without a chain.
	ErrNilChain = errors.New("loader chain is nil")
)

// NamespaceError names the namespace that is already registered.
type NamespaceError struct {
	Namespace string
}

// Error implements the error interface.
func (e *NamespaceError) Error() string {
	if e.Namespace == "" {
		return "the default namespace is already registered"
	}
	return fmt.Sprintf("namespace %q is already registered", e.Namespace)
}

// Unwrap returns ErrNamespaceInUse for errors.Is() compatibility.
func (e *NamespaceError) Unwrap() error { return ErrNamespaceInUse }
