// Package controller provides output adapters for displaying modules, mutants
// and test selections.
package controller

import (
	"context"

	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

// MutantDifference pairs a mutant with the listing diff against its original.
type MutantDifference struct {
	Mutant     m.Mutant
	Difference domain.CodeWithDifference
}

// UI defines the interface for reporting command results.
// Implementations can use different output methods (plain tables, JSON, etc).
type UI interface {
	DisplayModule(ctx context.Context, tree *m.ModuleTree, hasDebugSymbols bool)
	DisplayOperators(ctx context.Context, operators []domain.Operator)
	DisplaySelection(ctx context.Context, selection m.SelectedTests)
	DisplayMutants(ctx context.Context, mutants []m.Mutant)
	DisplayDifference(ctx context.Context, diff MutantDifference)
	DisplayMutationScore(ctx context.Context, score float64)
}
