package domain

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// CodeWithDifference is a unified diff between two listings of a module.
type CodeWithDifference struct {
	Code        string
	LineChanges int
}

// RenderListing prints tree as an IL-style listing, one member per line and
// one line per instruction.
func RenderListing(tree *m.ModuleTree) string {
	var b strings.Builder

	fmt.Fprintf(&b, ".module %s %s\n", tree.Name, tree.Version)

	for _, td := range tree.AllTypes() {
		fmt.Fprintf(&b, ".class %s", td.FullName())

		if td.BaseType != "" {
			fmt.Fprintf(&b, " extends %s", td.BaseType)
		}

		b.WriteString("\n")

		for _, f := range td.Fields {
			fmt.Fprintf(&b, "  .field %s\n", f.FullName())
		}

		for _, p := range td.Properties {
			fmt.Fprintf(&b, "  .property %s\n", p.FullName())
		}

		for _, e := range td.Events {
			fmt.Fprintf(&b, "  .event %s\n", e.FullName())
		}

		for _, md := range td.Methods {
			fmt.Fprintf(&b, "  .method %s\n", md.FullName())

			for _, ins := range md.Body {
				fmt.Fprintf(&b, "    IL_%04x: %s", ins.Offset, ins.OpCode)

				if ins.Operand != "" {
					fmt.Fprintf(&b, " %s", ins.Operand)
				}

				if ins.Location != nil {
					fmt.Fprintf(&b, " // %s:%d", ins.Location.Document, ins.Location.Line)
				}

				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// CreateDifferenceListing diffs the listings of an unmutated baseline and a mutant.
func CreateDifferenceListing(baseline, mutant *m.ModuleTree) (CodeWithDifference, error) {
	if baseline == nil || mutant == nil {
		return CodeWithDifference{}, fmt.Errorf("cannot diff a nil module tree")
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(RenderListing(baseline)),
		B:        difflib.SplitLines(RenderListing(mutant)),
		FromFile: "original",
		ToFile:   "mutant",
		Context:  2,
	}

	code, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return CodeWithDifference{}, fmt.Errorf("failed to diff listings: %w", err)
	}

	changes := 0

	for _, line := range strings.Split(code, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}

		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			changes++
		}
	}

	return CodeWithDifference{Code: code, LineChanges: changes}, nil
}
