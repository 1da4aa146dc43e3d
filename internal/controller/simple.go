package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pavzaj/visualmutator/internal/domain"
	m "github.com/pavzaj/visualmutator/internal/model"
)

// SimpleUI implements UI by rendering plain tables to the command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayModule prints every member of tree grouped by declaring type.
func (s *SimpleUI) DisplayModule(ctx context.Context, tree *m.ModuleTree, hasDebugSymbols bool) {
	if err := ctx.Err(); err != nil || tree == nil {
		return
	}

	symbols := "no debug symbols"
	if hasDebugSymbols {
		symbols = "debug symbols loaded"
	}

	s.printf("Module %s %s (%s)\n", tree.Name, tree.Version, symbols)
	s.printf("\n%s", renderMemberTable(tree))
}

func renderMemberTable(tree *m.ModuleTree) string {
	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Type", "Kind", "Member"})

	members := 0

	for _, td := range tree.AllTypes() {
		table.Append([]string{td.FullName(), string(m.KindType), ""})

		for _, kind := range []m.ElementKind{m.KindField, m.KindProperty, m.KindEvent, m.KindMethod} {
			for _, member := range td.Members(kind) {
				table.Append([]string{"", string(kind), member.FullName()})

				members++
			}
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Types %d", len(tree.AllTypes())),
		"",
		fmt.Sprintf("%d members", members),
	})
	table.Render()

	return tableBuffer.String()
}

// DisplayOperators prints the available mutation operators.
func (s *SimpleUI) DisplayOperators(ctx context.Context, operators []domain.Operator) {
	if err := ctx.Err(); err != nil {
		return
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Operator", "Description"})
	for _, op := range operators {
		table.Append([]string{op.Name(), op.Description()})
	}

	table.Render()
	s.printf("%s", tableBuffer.String())
}

// DisplaySelection prints the selected tests and the filter that runs them.
func (s *SimpleUI) DisplaySelection(ctx context.Context, selection m.SelectedTests) {
	if err := ctx.Err(); err != nil {
		return
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"Class", "Test"})
	for _, id := range selection.Tests {
		table.Append([]string{id.Class, id.Method})
	}

	table.SetFooter([]string{"Selected", fmt.Sprintf("%d", len(selection.Tests))})
	table.Render()

	s.printf("%s", tableBuffer.String())

	if len(selection.MinimalClosure) == 0 {
		s.printf("Filter: (none, no tests selected)\n")
		return
	}

	s.printf("Filter: %s\n", domain.FilterExpression(selection.MinimalClosure))
}

// DisplayMutants prints one row per mutant.
func (s *SimpleUI) DisplayMutants(ctx context.Context, mutants []m.Mutant) {
	if err := ctx.Err(); err != nil {
		return
	}

	var tableBuffer bytes.Buffer

	table := newTable(&tableBuffer, []string{"ID", "Operator", "Target", "Description", "Status"})

	counts := make(map[m.MutantStatus]int)

	for _, mutant := range mutants {
		status := mutant.Status.String()
		if mutant.Status == m.MutantAborted && mutant.Err != nil {
			status = fmt.Sprintf("%s: %v", status, mutant.Err)
		}

		table.Append([]string{
			shortID(mutant.ID),
			mutant.Operator,
			mutant.Target.Signature,
			mutant.Description,
			status,
		})
		counts[mutant.Status]++
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(mutants)),
		"",
		"",
		"",
		formatCounts(counts),
	})
	table.Render()

	s.printf("\n%s", tableBuffer.String())
}

// DisplayDifference prints a unified diff for a surviving mutant.
func (s *SimpleUI) DisplayDifference(ctx context.Context, diff MutantDifference) {
	if err := ctx.Err(); err != nil {
		return
	}

	if diff.Difference.LineChanges == 0 {
		return
	}

	s.printf("Mutant %s (%s) %s\n", shortID(diff.Mutant.ID), diff.Mutant.Operator, diff.Mutant.Status)
	s.printf("%s\n", diff.Difference.Code)
}

// DisplayMutationScore prints the final mutation score.
func (s *SimpleUI) DisplayMutationScore(ctx context.Context, score float64) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Mutation score: %.2f%%\n", score*100)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func newTable(buffer *bytes.Buffer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(buffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	return table
}

func formatCounts(counts map[m.MutantStatus]int) string {
	parts := make([]string, 0, len(counts))

	for _, status := range []m.MutantStatus{m.MutantKilled, m.MutantSurvived, m.MutantAborted, m.MutantCreated} {
		if counts[status] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
		}
	}

	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
