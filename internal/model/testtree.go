package model

// Inclusion is the explicit tri-state selection flag of a test tree node.
// The zero value is InclusionUnset, meaning the state is derived.
type Inclusion int8

const (
	// InclusionUnset leaves the state to be derived (leaves default to included).
	InclusionUnset Inclusion = iota
	// Included marks the node as selected.
	Included
	// Excluded marks the node, and everything below it, as not selected.
	Excluded
)

func (i Inclusion) String() string {
	switch i {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	default:
		return "unset"
	}
}

// InclusionOf maps an optional boolean, as found in configuration files, to an Inclusion.
func InclusionOf(flag *bool) Inclusion {
	if flag == nil {
		return InclusionUnset
	}

	if *flag {
		return Included
	}

	return Excluded
}

// TestNodeKind is the level of a node in the namespace → class → method hierarchy.
type TestNodeKind int

const (
	// NodeNamespace groups classes.
	NodeNamespace TestNodeKind = iota
	// NodeClass groups test methods.
	NodeClass
	// NodeMethod is a single test.
	NodeMethod
)

// TestID identifies a single test method.
type TestID struct {
	Class  string
	Method string
}

func (id TestID) String() string {
	if id.Class == "" {
		return id.Method
	}

	return id.Class + "." + id.Method
}

// TestNode is one node of a test selection tree. Children keep their declared order.
type TestNode struct {
	Kind      TestNodeKind
	Name      string
	Namespace string // set on class nodes
	TestID    TestID // set on method nodes
	Inclusion Inclusion
	Children  []*TestNode
}

// IsLeaf reports whether the node is a test method.
func (n *TestNode) IsLeaf() bool {
	return n.Kind == NodeMethod
}

// FullName returns the representative identifier of the node: the namespace
// name, Namespace.Class for classes, and the test identifier for methods.
func (n *TestNode) FullName() string {
	switch n.Kind {
	case NodeClass:
		if n.Namespace == "" {
			return n.Name
		}

		return n.Namespace + "." + n.Name
	case NodeMethod:
		return n.TestID.String()
	default:
		return n.Name
	}
}

// NewNamespaceNode builds a namespace node.
func NewNamespaceNode(name string, inclusion Inclusion, classes ...*TestNode) *TestNode {
	return &TestNode{Kind: NodeNamespace, Name: name, Inclusion: inclusion, Children: classes}
}

// NewClassNode builds a class node.
func NewClassNode(namespace, name string, inclusion Inclusion, methods ...*TestNode) *TestNode {
	return &TestNode{Kind: NodeClass, Namespace: namespace, Name: name, Inclusion: inclusion, Children: methods}
}

// NewMethodNode builds a test method leaf for the class with the given full name.
func NewMethodNode(class, name string, inclusion Inclusion) *TestNode {
	return &TestNode{
		Kind:      NodeMethod,
		Name:      name,
		TestID:    TestID{Class: class, Method: name},
		Inclusion: inclusion,
	}
}

// SelectedTests is the materialized selection: the included leaf tests and
// the minimal list of identifiers covering exactly those tests.
type SelectedTests struct {
	Tests          []TestID
	MinimalClosure []string
}
