package adapter

import (
	"errors"
	"fmt"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// ErrMalformedTree reports a code-model tree that cannot be copied.
var ErrMalformedTree = errors.New("malformed code-model tree")

// TreeCopier produces structurally independent copies of code-model trees.
type TreeCopier interface {
	// DeepCopy returns a tree sharing no mutable node with tree. Instruction
	// locations are taken from locations when it is not nil.
	DeepCopy(tree *m.ModuleTree, locations m.SourceLocationProvider) (*m.ModuleTree, error)
}

// StructuralCopier copies trees node by node.
type StructuralCopier struct{}

// NewStructuralCopier constructs a StructuralCopier.
func NewStructuralCopier() *StructuralCopier {
	return &StructuralCopier{}
}

type copyState struct {
	locations m.SourceLocationProvider
	seen      map[*m.TypeDefinition]struct{}
}

// DeepCopy implements TreeCopier. A type reachable twice (shared or cyclic)
// or a nil node makes the tree malformed.
func (c *StructuralCopier) DeepCopy(tree *m.ModuleTree, locations m.SourceLocationProvider) (*m.ModuleTree, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: nil tree", ErrMalformedTree)
	}

	state := &copyState{locations: locations, seen: make(map[*m.TypeDefinition]struct{})}

	out := &m.ModuleTree{Name: tree.Name, Version: tree.Version}

	types, err := state.copyTypes(tree.Types)
	if err != nil {
		return nil, err
	}

	out.Types = types
	out.Link()

	return out, nil
}

func (s *copyState) copyTypes(types []*m.TypeDefinition) ([]*m.TypeDefinition, error) {
	if types == nil {
		return nil, nil
	}

	out := make([]*m.TypeDefinition, 0, len(types))

	for _, td := range types {
		cp, err := s.copyType(td)
		if err != nil {
			return nil, err
		}

		out = append(out, cp)
	}

	return out, nil
}

func (s *copyState) copyType(td *m.TypeDefinition) (*m.TypeDefinition, error) {
	if td == nil {
		return nil, fmt.Errorf("%w: nil type", ErrMalformedTree)
	}

	if _, ok := s.seen[td]; ok {
		return nil, fmt.Errorf("%w: type %s reachable more than once", ErrMalformedTree, td.FullName())
	}

	s.seen[td] = struct{}{}

	cp := &m.TypeDefinition{Namespace: td.Namespace, Name: td.Name, BaseType: td.BaseType}

	nested, err := s.copyTypes(td.NestedTypes)
	if err != nil {
		return nil, err
	}

	cp.NestedTypes = nested

	if cp.Fields, err = copyMembers(td, td.Fields, func(f *m.FieldDefinition) *m.FieldDefinition {
		return &m.FieldDefinition{Name: f.Name, FieldType: f.FieldType, IsStatic: f.IsStatic, Constant: f.Constant}
	}); err != nil {
		return nil, err
	}

	if cp.Methods, err = copyMembers(td, td.Methods, s.copyMethod); err != nil {
		return nil, err
	}

	if cp.Properties, err = copyMembers(td, td.Properties, func(p *m.PropertyDefinition) *m.PropertyDefinition {
		return &m.PropertyDefinition{
			Name:         p.Name,
			PropertyType: p.PropertyType,
			Parameters:   copyParameters(p.Parameters),
			Getter:       p.Getter,
			Setter:       p.Setter,
		}
	}); err != nil {
		return nil, err
	}

	if cp.Events, err = copyMembers(td, td.Events, func(e *m.EventDefinition) *m.EventDefinition {
		return &m.EventDefinition{Name: e.Name, EventType: e.EventType, Add: e.Add, Remove: e.Remove}
	}); err != nil {
		return nil, err
	}

	return cp, nil
}

func copyMembers[T any](owner *m.TypeDefinition, members []*T, copyFn func(*T) *T) ([]*T, error) {
	if members == nil {
		return nil, nil
	}

	out := make([]*T, 0, len(members))

	for i, member := range members {
		if member == nil {
			return nil, fmt.Errorf("%w: nil member #%d in %s", ErrMalformedTree, i, owner.FullName())
		}

		out = append(out, copyFn(member))
	}

	return out, nil
}

func (s *copyState) copyMethod(md *m.MethodDefinition) *m.MethodDefinition {
	cp := &m.MethodDefinition{
		Name:       md.Name,
		ReturnType: md.ReturnType,
		Parameters: copyParameters(md.Parameters),
		IsStatic:   md.IsStatic,
		IsVirtual:  md.IsVirtual,
	}

	if md.Body == nil {
		return cp
	}

	signature := md.FullName()
	cp.Body = make([]m.Instruction, len(md.Body))

	for i, ins := range md.Body {
		cp.Body[i] = m.Instruction{Offset: ins.Offset, OpCode: ins.OpCode, Operand: ins.Operand}

		if s.locations != nil {
			if loc, ok := s.locations.Location(signature, ins.Offset); ok {
				cp.Body[i].Location = &loc
				continue
			}
		}

		if ins.Location != nil {
			loc := *ins.Location
			cp.Body[i].Location = &loc
		}
	}

	return cp
}

func copyParameters(params []m.Parameter) []m.Parameter {
	if params == nil {
		return nil
	}

	out := make([]m.Parameter, len(params))
	copy(out, params)

	return out
}
