package operators

import (
	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

const arithmeticName = "AOR"

var arithmeticOpcodes = []string{"add", "sub", "mul", "div", "rem"}

// ArithmeticOperatorReplacement replaces each arithmetic instruction with every
// other arithmetic instruction.
type ArithmeticOperatorReplacement struct{}

// Name implements domain.Operator.
func (ArithmeticOperatorReplacement) Name() string { return arithmeticName }

// Description implements domain.Operator.
func (ArithmeticOperatorReplacement) Description() string {
	return "Arithmetic operator replacement (add, sub, mul, div, rem)"
}

// FindTargets implements domain.Operator.
func (ArithmeticOperatorReplacement) FindTargets(tree *m.ModuleTree) []domain.MutationTarget {
	return opcodeTargets(tree, func(*m.MethodDefinition) bool { return true }, arithmeticAlternatives)
}

// Apply implements domain.Operator.
func (ArithmeticOperatorReplacement) Apply(element m.Element, target domain.MutationTarget) error {
	return replaceOpcode(element, target)
}

func arithmeticAlternatives(opcode string) []string {
	if !isArithmetic(opcode) {
		return nil
	}

	var alternatives []string

	for _, op := range arithmeticOpcodes {
		if op != opcode {
			alternatives = append(alternatives, op)
		}
	}

	return alternatives
}

func isArithmetic(opcode string) bool {
	for _, op := range arithmeticOpcodes {
		if op == opcode {
			return true
		}
	}

	return false
}
