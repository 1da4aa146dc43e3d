package model

import (
	"fmt"
	"strings"
)

// TypeIdentity locates a declared type by name rather than by pointer.
// Path holds the type name followed by nothing for top-level types, or the
// chain of enclosing type names (outermost first) ending with the type
// itself for nested ones.
type TypeIdentity struct {
	Module    string   `yaml:"module,omitempty"`
	Namespace string   `yaml:"namespace,omitempty"`
	Path      []string `yaml:"path"`
}

// IdentityOf builds the identity of td from its current position in a tree.
func IdentityOf(td *TypeDefinition) TypeIdentity {
	var chain []string

	outer := td
	for cur := td; cur != nil; cur = cur.DeclaringType {
		chain = append(chain, cur.Name)
		outer = cur
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	id := TypeIdentity{Namespace: outer.Namespace, Path: chain}
	if outer.Module != nil {
		id.Module = outer.Module.Name
	}

	return id
}

// String renders the identity as Namespace.Outer/Inner.
func (id TypeIdentity) String() string {
	name := strings.Join(id.Path, "/")
	if id.Namespace == "" {
		return name
	}

	return id.Namespace + "." + name
}

// ElementReference is a copy-surviving structural identity of one element:
// the identity of its declaring type plus its own full signature.
type ElementReference struct {
	Type      TypeIdentity `yaml:"type"`
	Kind      ElementKind  `yaml:"kind"`
	Signature string       `yaml:"signature"`
}

func (r ElementReference) String() string {
	return fmt.Sprintf("%s %q in %s", r.Kind, r.Signature, r.Type)
}
