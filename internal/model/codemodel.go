package model

import "strings"

// ElementKind identifies which member collection of a type an element lives in.
type ElementKind string

const (
	// KindType is a type definition, top-level or nested.
	KindType ElementKind = "type"
	// KindField is a field of a type.
	KindField ElementKind = "field"
	// KindMethod is a method, constructor or accessor of a type.
	KindMethod ElementKind = "method"
	// KindProperty is a property of a type.
	KindProperty ElementKind = "property"
	// KindEvent is an event of a type.
	KindEvent ElementKind = "event"
)

// Element is any addressable node of a code-model tree.
type Element interface {
	Kind() ElementKind
	// FullName is the fully-qualified signature of the element, including
	// the parts that disambiguate overloads.
	FullName() string
	// Declaring returns the enclosing type, or nil for top-level types and
	// detached members.
	Declaring() *TypeDefinition
}

// ModuleTree is the editable code model of one binary module.
type ModuleTree struct {
	Name    string            `msgpack:"name" yaml:"name"`
	Version string            `msgpack:"version" yaml:"version,omitempty"`
	Types   []*TypeDefinition `msgpack:"types" yaml:"types"`
}

// Link restores the parent links of every node. Decoders and copiers call it
// after building a tree, since back-links are never serialized.
func (t *ModuleTree) Link() {
	for _, td := range t.Types {
		if td != nil {
			td.link(nil, t)
		}
	}
}

// AllTypes returns every type of the tree, nested types directly after their
// enclosing type.
func (t *ModuleTree) AllTypes() []*TypeDefinition {
	var out []*TypeDefinition

	var walk func(types []*TypeDefinition)

	walk = func(types []*TypeDefinition) {
		for _, td := range types {
			if td == nil {
				continue
			}

			out = append(out, td)
			walk(td.NestedTypes)
		}
	}

	walk(t.Types)

	return out
}

// TypeDefinition is a declared type.
type TypeDefinition struct {
	Namespace   string                `msgpack:"namespace" yaml:"namespace,omitempty"`
	Name        string                `msgpack:"name" yaml:"name"`
	BaseType    string                `msgpack:"base,omitempty" yaml:"base,omitempty"`
	NestedTypes []*TypeDefinition     `msgpack:"nested,omitempty" yaml:"nested,omitempty"`
	Fields      []*FieldDefinition    `msgpack:"fields,omitempty" yaml:"fields,omitempty"`
	Methods     []*MethodDefinition   `msgpack:"methods,omitempty" yaml:"methods,omitempty"`
	Properties  []*PropertyDefinition `msgpack:"properties,omitempty" yaml:"properties,omitempty"`
	Events      []*EventDefinition    `msgpack:"events,omitempty" yaml:"events,omitempty"`

	DeclaringType *TypeDefinition `msgpack:"-" yaml:"-"`
	Module        *ModuleTree     `msgpack:"-" yaml:"-"`
}

// Kind implements Element.
func (td *TypeDefinition) Kind() ElementKind { return KindType }

// Declaring implements Element.
func (td *TypeDefinition) Declaring() *TypeDefinition { return td.DeclaringType }

// FullName returns Namespace.Name for top-level types and Outer/Inner for nested ones.
func (td *TypeDefinition) FullName() string {
	if td.DeclaringType != nil {
		return td.DeclaringType.FullName() + "/" + td.Name
	}

	if td.Namespace == "" {
		return td.Name
	}

	return td.Namespace + "." + td.Name
}

// Members returns the member collection of the given kind. For KindType the
// nested types are returned. Nil entries are skipped.
func (td *TypeDefinition) Members(kind ElementKind) []Element {
	var out []Element

	switch kind {
	case KindType:
		out = appendElements(out, td.NestedTypes)
	case KindField:
		out = appendElements(out, td.Fields)
	case KindMethod:
		out = appendElements(out, td.Methods)
	case KindProperty:
		out = appendElements(out, td.Properties)
	case KindEvent:
		out = appendElements(out, td.Events)
	}

	return out
}

func appendElements[T any, P interface {
	*T
	Element
}](out []Element, items []P) []Element {
	for _, item := range items {
		if item == nil {
			continue
		}

		out = append(out, item)
	}

	return out
}

func (td *TypeDefinition) link(parent *TypeDefinition, module *ModuleTree) {
	td.DeclaringType = parent
	td.Module = module

	for _, f := range td.Fields {
		if f != nil {
			f.DeclaringType = td
		}
	}

	for _, md := range td.Methods {
		if md != nil {
			md.DeclaringType = td
		}
	}

	for _, p := range td.Properties {
		if p != nil {
			p.DeclaringType = td
		}
	}

	for _, e := range td.Events {
		if e != nil {
			e.DeclaringType = td
		}
	}

	for _, n := range td.NestedTypes {
		if n != nil {
			n.link(td, module)
		}
	}
}

// Parameter is a method, indexer or delegate parameter.
type Parameter struct {
	Name string `msgpack:"name" yaml:"name"`
	Type string `msgpack:"type" yaml:"type"`
}

// FieldDefinition is a field of a type.
type FieldDefinition struct {
	Name      string `msgpack:"name" yaml:"name"`
	FieldType string `msgpack:"type" yaml:"type"`
	IsStatic  bool   `msgpack:"static,omitempty" yaml:"static,omitempty"`
	Constant  string `msgpack:"const,omitempty" yaml:"const,omitempty"`

	DeclaringType *TypeDefinition `msgpack:"-" yaml:"-"`
}

// Kind implements Element.
func (f *FieldDefinition) Kind() ElementKind { return KindField }

// Declaring implements Element.
func (f *FieldDefinition) Declaring() *TypeDefinition { return f.DeclaringType }

// FullName implements Element.
func (f *FieldDefinition) FullName() string {
	return f.FieldType + " " + qualify(f.DeclaringType, f.Name)
}

// Instruction is one operation of a method body.
type Instruction struct {
	Offset  int    `msgpack:"offset" yaml:"offset"`
	OpCode  string `msgpack:"op" yaml:"op"`
	Operand string `msgpack:"operand,omitempty" yaml:"operand,omitempty"`

	// Location is debug data, filled from debug symbols and never part of
	// the binary encoding.
	Location *SourceLocation `msgpack:"-" yaml:"-"`
}

// MethodDefinition is a method of a type.
type MethodDefinition struct {
	Name       string        `msgpack:"name" yaml:"name"`
	ReturnType string        `msgpack:"returns" yaml:"returns"`
	Parameters []Parameter   `msgpack:"params,omitempty" yaml:"params,omitempty"`
	IsStatic   bool          `msgpack:"static,omitempty" yaml:"static,omitempty"`
	IsVirtual  bool          `msgpack:"virtual,omitempty" yaml:"virtual,omitempty"`
	Body       []Instruction `msgpack:"body,omitempty" yaml:"body,omitempty"`

	DeclaringType *TypeDefinition `msgpack:"-" yaml:"-"`
}

// Kind implements Element.
func (md *MethodDefinition) Kind() ElementKind { return KindMethod }

// Declaring implements Element.
func (md *MethodDefinition) Declaring() *TypeDefinition { return md.DeclaringType }

// FullName implements Element.
func (md *MethodDefinition) FullName() string {
	return md.ReturnType + " " + qualify(md.DeclaringType, md.Name) + "(" + parameterTypes(md.Parameters) + ")"
}

// PropertyDefinition is a property or indexer of a type.
type PropertyDefinition struct {
	Name         string      `msgpack:"name" yaml:"name"`
	PropertyType string      `msgpack:"type" yaml:"type"`
	Parameters   []Parameter `msgpack:"params,omitempty" yaml:"params,omitempty"`
	Getter       string      `msgpack:"get,omitempty" yaml:"get,omitempty"`
	Setter       string      `msgpack:"set,omitempty" yaml:"set,omitempty"`

	DeclaringType *TypeDefinition `msgpack:"-" yaml:"-"`
}

// Kind implements Element.
func (p *PropertyDefinition) Kind() ElementKind { return KindProperty }

// Declaring implements Element.
func (p *PropertyDefinition) Declaring() *TypeDefinition { return p.DeclaringType }

// FullName implements Element.
func (p *PropertyDefinition) FullName() string {
	return p.PropertyType + " " + qualify(p.DeclaringType, p.Name) + "(" + parameterTypes(p.Parameters) + ")"
}

// EventDefinition is an event of a type.
type EventDefinition struct {
	Name      string `msgpack:"name" yaml:"name"`
	EventType string `msgpack:"type" yaml:"type"`
	Add       string `msgpack:"add,omitempty" yaml:"add,omitempty"`
	Remove    string `msgpack:"remove,omitempty" yaml:"remove,omitempty"`

	DeclaringType *TypeDefinition `msgpack:"-" yaml:"-"`
}

// Kind implements Element.
func (e *EventDefinition) Kind() ElementKind { return KindEvent }

// Declaring implements Element.
func (e *EventDefinition) Declaring() *TypeDefinition { return e.DeclaringType }

// FullName implements Element.
func (e *EventDefinition) FullName() string {
	return e.EventType + " " + qualify(e.DeclaringType, e.Name)
}

func qualify(declaring *TypeDefinition, name string) string {
	if declaring == nil {
		return name
	}

	return declaring.FullName() + "::" + name
}

func parameterTypes(params []Parameter) string {
	types := make([]string, 0, len(params))
	for _, p := range params {
		types = append(types, p.Type)
	}

	return strings.Join(types, ",")
}
