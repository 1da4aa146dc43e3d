// Package operators provides sample instruction-level mutation operators.
package operators

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

// ErrStaleTarget reports an element that no longer holds the instruction a
// target was found on.
var ErrStaleTarget = errors.New("mutation target does not match element")

var catalog = map[string]domain.Operator{
	arithmeticName: ArithmeticOperatorReplacement{},
	booleanName:    BooleanConstantReplacement{},
}

// All returns every built-in operator sorted by name.
func All() []domain.Operator {
	names := Names()
	ops := make([]domain.Operator, 0, len(names))

	for _, name := range names {
		ops = append(ops, catalog[name])
	}

	return ops
}

// Names returns the names of the built-in operators.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ByName looks operators up case-insensitively. No names selects all of them.
func ByName(names []string) ([]domain.Operator, error) {
	if len(names) == 0 {
		return All(), nil
	}

	ops := make([]domain.Operator, 0, len(names))

	for _, name := range names {
		op, ok := catalog[strings.ToUpper(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unsupported mutation operator: %s", name)
		}

		ops = append(ops, op)
	}

	return ops, nil
}

// opcodeTargets lists, for every instruction of every method accepted by
// keep, one target per alternative opcode returned by alternatives.
func opcodeTargets(
	tree *m.ModuleTree,
	keep func(*m.MethodDefinition) bool,
	alternatives func(opcode string) []string,
) []domain.MutationTarget {
	var targets []domain.MutationTarget

	for _, td := range tree.AllTypes() {
		for _, md := range td.Methods {
			if md == nil || !keep(md) {
				continue
			}

			for i, ins := range md.Body {
				for _, alt := range alternatives(ins.OpCode) {
					targets = append(targets, domain.MutationTarget{
						Element:     md,
						Instruction: i,
						Original:    ins.OpCode,
						Replacement: alt,
						Description: fmt.Sprintf("%s: IL_%04x %s -> %s", md.FullName(), ins.Offset, ins.OpCode, alt),
					})
				}
			}
		}
	}

	return targets
}

// replaceOpcode swaps the opcode of the target instruction in element.
func replaceOpcode(element m.Element, target domain.MutationTarget) error {
	md, ok := element.(*m.MethodDefinition)
	if !ok {
		return fmt.Errorf("%w: expected a method, got %s", ErrStaleTarget, element.Kind())
	}

	if target.Instruction < 0 || target.Instruction >= len(md.Body) {
		return fmt.Errorf("%w: instruction #%d out of range in %s", ErrStaleTarget, target.Instruction, md.FullName())
	}

	ins := &md.Body[target.Instruction]
	if ins.OpCode != target.Original {
		return fmt.Errorf("%w: found %s at #%d, expected %s", ErrStaleTarget, ins.OpCode, target.Instruction, target.Original)
	}

	ins.OpCode = target.Replacement

	return nil
}
