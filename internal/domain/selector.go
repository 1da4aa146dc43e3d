package domain

import (
	"strings"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// SelectionState is the effective selection state of a test tree node.
type SelectionState int

const (
	// StateExcluded means no test below the node is selected.
	StateExcluded SelectionState = iota
	// StateIncluded means every test below the node is selected.
	StateIncluded
	// StateMixed means some, but not all, tests below the node are selected.
	StateMixed
)

func (s SelectionState) String() string {
	switch s {
	case StateIncluded:
		return "included"
	case StateMixed:
		return "mixed"
	default:
		return "excluded"
	}
}

// FilterSeparator joins minimal closure entries into a harness filter expression.
const FilterSeparator = ","

// EffectiveState derives the selection state of node.
//
// An unset leaf counts as included. An explicitly excluded node excludes its
// whole subtree. Any other interior node takes its state from its children:
// included when all are included, excluded when all are excluded (or it has
// none), mixed otherwise. An explicit include on an interior node never
// overrides an exclusion below it.
func EffectiveState(node *m.TestNode) SelectionState {
	state, _ := reduce(node, false)
	return state
}

// ComputeSelection returns every leaf test whose effective state is included,
// in tree order. Excluded subtrees are not descended into.
func ComputeSelection(forest []*m.TestNode) []m.TestID {
	var selected []m.TestID

	var walk func(node *m.TestNode)

	walk = func(node *m.TestNode) {
		if node == nil {
			return
		}

		if node.IsLeaf() {
			if EffectiveState(node) == StateIncluded {
				selected = append(selected, node.TestID)
			}

			return
		}

		if node.Inclusion == m.Excluded {
			return
		}

		for _, child := range node.Children {
			walk(child)
		}
	}

	for _, node := range forest {
		walk(node)
	}

	return selected
}

// ComputeMinimalClosure returns the fewest identifiers whose coverage equals
// ComputeSelection(forest): every uniformly included subtree collapses to the
// identifier of its root, mixed nodes are expanded in declared order.
func ComputeMinimalClosure(forest []*m.TestNode) []string {
	closure := []string{}

	for _, node := range forest {
		_, ids := reduce(node, true)
		closure = append(closure, ids...)
	}

	return closure
}

// GetIncludedTests materializes both the leaf selection and its minimal closure.
func GetIncludedTests(forest []*m.TestNode) m.SelectedTests {
	return m.SelectedTests{
		Tests:          ComputeSelection(forest),
		MinimalClosure: ComputeMinimalClosure(forest),
	}
}

// FilterExpression renders a minimal closure as a single harness filter.
func FilterExpression(closure []string) string {
	return strings.Join(closure, FilterSeparator)
}

// reduce computes the state of node bottom-up in one pass and, when collect is
// set, the closure identifiers of its subtree.
func reduce(node *m.TestNode, collect bool) (SelectionState, []string) {
	if node == nil {
		return StateExcluded, nil
	}

	if node.IsLeaf() {
		if node.Inclusion == m.Excluded {
			return StateExcluded, nil
		}

		return StateIncluded, representative(node, collect)
	}

	if node.Inclusion == m.Excluded || len(node.Children) == 0 {
		return StateExcluded, nil
	}

	var (
		ids                    []string
		anyIncluded, anyOthers bool
	)

	for _, child := range node.Children {
		state, childIDs := reduce(child, collect)

		switch state {
		case StateIncluded:
			anyIncluded = true
		case StateMixed:
			anyIncluded = true
			anyOthers = true
		case StateExcluded:
			anyOthers = true
		}

		for _, id := range childIDs {
			if strings.TrimSpace(id) != "" {
				ids = append(ids, id)
			}
		}
	}

	switch {
	case anyIncluded && !anyOthers:
		return StateIncluded, representative(node, collect)
	case !anyIncluded:
		return StateExcluded, nil
	default:
		return StateMixed, ids
	}
}

func representative(node *m.TestNode, collect bool) []string {
	if !collect {
		return nil
	}

	return []string{node.FullName()}
}
