// Package domain implements the mutation core: element location across tree
// copies, the module registry, test selection minimization, and mutant
// production on top of them.
package domain

import (
	"errors"
	"fmt"

	m "github.com/pavzaj/visualmutator/internal/model"
)

var (
	// ErrIntegrity is wrapped by every element resolution failure. Resolution
	// only fails when a copy diverged from its original, which is a bug.
	ErrIntegrity = errors.New("code-model integrity violation")

	// ErrNotRegistered reports a module handle that the registry does not own.
	ErrNotRegistered = errors.New("module not registered")

	// ErrDetachedElement reports an element with no declaring type.
	ErrDetachedElement = errors.New("element is not attached to a declaring type")
)

// LoadError reports a module that could not be decompiled and registered.
type LoadError struct {
	Path m.Path
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load module %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFoundError reports that no element in a tree matches a reference.
type NotFoundError struct {
	Ref m.ElementReference
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.Ref)
}

func (e *NotFoundError) Unwrap() error { return ErrIntegrity }

// IntegrityError reports a reference matching more than one element.
type IntegrityError struct {
	Ref     m.ElementReference
	Matches int
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%d elements match %s", e.Matches, e.Ref)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// IOError reports a failure writing a module or its debug symbols.
type IOError struct {
	Path m.Path
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CorruptCopyError reports a deep copy that failed structurally.
type CorruptCopyError struct {
	Module string
	Err    error
}

func (e *CorruptCopyError) Error() string {
	return fmt.Sprintf("failed to copy module %s: %v", e.Module, e.Err)
}

func (e *CorruptCopyError) Unwrap() error { return e.Err }
