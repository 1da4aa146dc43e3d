package domain

import (
	"fmt"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// Capture records the structural identity of element: the identity of its
// declaring type and its own signature. Types are captured by their own
// identity. The declaring chain must end in a type attached to a module.
func Capture(element m.Element) (m.ElementReference, error) {
	if element == nil {
		return m.ElementReference{}, ErrDetachedElement
	}

	declaring, ok := element.(*m.TypeDefinition)
	if !ok {
		declaring = element.Declaring()
	}

	if declaring == nil || !attached(declaring) {
		return m.ElementReference{}, fmt.Errorf("%w: %s %s", ErrDetachedElement, element.Kind(), element.FullName())
	}

	return m.ElementReference{
		Type:      m.IdentityOf(declaring),
		Kind:      element.Kind(),
		Signature: element.FullName(),
	}, nil
}

func attached(td *m.TypeDefinition) bool {
	for td.DeclaringType != nil {
		td = td.DeclaringType
	}

	return td.Module != nil
}

// Resolve finds the element ref identifies inside root. The result is
// structurally equivalent to the captured element and is a distinct object
// when root is a copy. Zero matches yield *NotFoundError, several yield
// *IntegrityError.
func Resolve(ref m.ElementReference, root *m.ModuleTree) (m.Element, error) {
	if root == nil || len(ref.Type.Path) == 0 {
		return nil, &NotFoundError{Ref: ref}
	}

	if ref.Type.Module != "" && ref.Type.Module != root.Name {
		return nil, &NotFoundError{Ref: ref}
	}

	td, err := findType(ref, root)
	if err != nil {
		return nil, err
	}

	if ref.Kind == m.KindType {
		return td, nil
	}

	var found []m.Element

	for _, member := range td.Members(ref.Kind) {
		if member.FullName() == ref.Signature {
			found = append(found, member)
		}
	}

	return single(ref, found)
}

// findType walks the enclosing chain of ref from the top-level type down.
func findType(ref m.ElementReference, root *m.ModuleTree) (*m.TypeDefinition, error) {
	var candidates []*m.TypeDefinition

	for _, td := range root.Types {
		if td != nil && td.Namespace == ref.Type.Namespace && td.Name == ref.Type.Path[0] {
			candidates = append(candidates, td)
		}
	}

	for _, name := range ref.Type.Path[1:] {
		current, err := singleType(ref, candidates)
		if err != nil {
			return nil, err
		}

		candidates = candidates[:0]

		for _, nested := range current.NestedTypes {
			if nested != nil && nested.Name == name {
				candidates = append(candidates, nested)
			}
		}
	}

	return singleType(ref, candidates)
}

func singleType(ref m.ElementReference, candidates []*m.TypeDefinition) (*m.TypeDefinition, error) {
	switch len(candidates) {
	case 0:
		return nil, &NotFoundError{Ref: ref}
	case 1:
		return candidates[0], nil
	default:
		return nil, &IntegrityError{Ref: ref, Matches: len(candidates)}
	}
}

func single(ref m.ElementReference, found []m.Element) (m.Element, error) {
	switch len(found) {
	case 0:
		return nil, &NotFoundError{Ref: ref}
	case 1:
		return found[0], nil
	default:
		return nil, &IntegrityError{Ref: ref, Matches: len(found)}
	}
}
