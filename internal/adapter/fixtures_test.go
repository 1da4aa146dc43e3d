package adapter

import m "github.com/pavzaj/visualmutator/internal/model"

const (
	addSignature      = "System.Int32 Calc.Adder::Add(System.Int32,System.Int32)"
	positiveSignature = "System.Boolean Calc.Adder::IsPositive(System.Int32)"
)

func sampleModule() *m.ModuleTree {
	tree := &m.ModuleTree{
		Name:    "Calc",
		Version: "1.0.0",
		Types: []*m.TypeDefinition{{
			Namespace: "Calc",
			Name:      "Adder",
			BaseType:  "System.Object",
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
			Properties: []*m.PropertyDefinition{{Name: "Total", PropertyType: "System.Int32", Getter: "get_Total"}},
			Events:     []*m.EventDefinition{{Name: "Changed", EventType: "System.EventHandler"}},
			NestedTypes: []*m.TypeDefinition{{
				Name:    "Cache",
				Methods: []*m.MethodDefinition{{Name: "Clear", ReturnType: "System.Void"}},
			}},
		}},
	}
	tree.Link()

	return tree
}

// sampleSymbols is the YAML debug symbol document matching sampleModule.
const sampleSymbols = `methods:
  - signature: "System.Int32 Calc.Adder::Add(System.Int32,System.Int32)"
    scope:
      start_line: 10
      end_line: 13
    points:
      - offset: 0
        document: Adder.cs
        line: 11
      - offset: 2
        document: Adder.cs
        line: 12
`
