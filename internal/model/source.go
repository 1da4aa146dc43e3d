// Package model defines the data structures shared by the module mutation core.
package model

import "path/filepath"

// Path represents a file system path.
type Path string

// ChangeExtension returns p with its extension replaced by ext.
// ext is expected to carry its leading dot (".pdb").
func (p Path) ChangeExtension(ext string) Path {
	s := string(p)

	return Path(s[:len(s)-len(filepath.Ext(s))] + ext)
}

// Base returns the last element of the path.
func (p Path) Base() string {
	return filepath.Base(string(p))
}

// SourceLocation maps an instruction to a line range in a source document.
type SourceLocation struct {
	Document string `yaml:"document"`
	Line     int    `yaml:"line"`
	EndLine  int    `yaml:"end_line,omitempty"`
}

// MethodScope is the line range covered by a method body.
type MethodScope struct {
	StartLine int `yaml:"start_line"`
	EndLine   int `yaml:"end_line"`
}

// SourceLocationProvider resolves debug locations for the instructions of a method.
// The method is addressed by its full signature, the instruction by its IL offset.
type SourceLocationProvider interface {
	Location(method string, offset int) (SourceLocation, bool)
}
