package domain

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/pavzaj/visualmutator/internal/adapter"
	m "github.com/pavzaj/visualmutator/internal/model"
)

const (
	addSignature      = "System.Int32 Calc.Adder::Add(System.Int32,System.Int32)"
	positiveSignature = "System.Boolean Calc.Adder::IsPositive(System.Int32)"
)

const sampleSymbols = `methods:
  - signature: "System.Int32 Calc.Adder::Add(System.Int32,System.Int32)"
    scope:
      start_line: 10
      end_line: 13
    points:
      - offset: 2
        document: Adder.cs
        line: 12
`

func sampleModule(name string) *m.ModuleTree {
	tree := &m.ModuleTree{
		Name:    name,
		Version: "1.0.0",
		Types: []*m.TypeDefinition{{
			Namespace: "Calc",
			Name:      "Adder",
			Fields:    []*m.FieldDefinition{{Name: "total", FieldType: "System.Int32"}},
			Methods: []*m.MethodDefinition{
				{
					Name:       "Add",
					ReturnType: "System.Int32",
					Parameters: []m.Parameter{{Name: "a", Type: "System.Int32"}, {Name: "b", Type: "System.Int32"}},
					Body: []m.Instruction{
						{Offset: 0, OpCode: "ldarg.1"},
						{Offset: 1, OpCode: "ldarg.2"},
						{Offset: 2, OpCode: "add"},
						{Offset: 3, OpCode: "ret"},
					},
				},
				{
					Name:       "IsPositive",
					ReturnType: "System.Boolean",
					Parameters: []m.Parameter{{Name: "x", Type: "System.Int32"}},
					Body: []m.Instruction{
						{Offset: 0, OpCode: "ldc.i4.1"},
						{Offset: 1, OpCode: "ret"},
					},
				},
			},
			Events: []*m.EventDefinition{{Name: "Changed", EventType: "System.EventHandler"}},
			NestedTypes: []*m.TypeDefinition{{
				Name:       "Cache",
				Properties: []*m.PropertyDefinition{{Name: "Size", PropertyType: "System.Int32", Getter: "get_Size"}},
			}},
		}},
	}
	tree.Link()

	return tree
}

func writeModuleFile(t *testing.T, fs afero.Fs, path m.Path, tree *m.ModuleTree) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, adapter.NewMsgpackModuleCodec(fs).Write(context.Background(), tree, &buf, nil, nil))
	require.NoError(t, afero.WriteFile(fs, string(path), buf.Bytes(), 0o644))
}

func newTestRegistry(fs afero.Fs, opts ...RegistryOption) ModuleRegistry {
	return NewModuleRegistry(
		fs,
		adapter.NewMsgpackModuleCodec(fs),
		adapter.NewYAMLDebugSymbolStore(fs),
		adapter.NewStructuralCopier(),
		opts...,
	)
}
