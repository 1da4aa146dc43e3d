package operators

import (
	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

const (
	booleanName = "BCR"

	loadFalse   = "ldc.i4.0"
	loadTrue    = "ldc.i4.1"
	booleanType = "System.Boolean"
)

// BooleanConstantReplacement flips boolean constants loaded by methods that
// return System.Boolean.
type BooleanConstantReplacement struct{}

// Name implements domain.Operator.
func (BooleanConstantReplacement) Name() string { return booleanName }

// Description implements domain.Operator.
func (BooleanConstantReplacement) Description() string {
	return "Boolean constant replacement (true <-> false)"
}

// FindTargets implements domain.Operator.
func (BooleanConstantReplacement) FindTargets(tree *m.ModuleTree) []domain.MutationTarget {
	returnsBoolean := func(md *m.MethodDefinition) bool { return md.ReturnType == booleanType }

	return opcodeTargets(tree, returnsBoolean, func(opcode string) []string {
		switch opcode {
		case loadFalse:
			return []string{loadTrue}
		case loadTrue:
			return []string{loadFalse}
		default:
			return nil
		}
	})
}

// Apply implements domain.Operator.
func (BooleanConstantReplacement) Apply(element m.Element, target domain.MutationTarget) error {
	return replaceOpcode(element, target)
}
