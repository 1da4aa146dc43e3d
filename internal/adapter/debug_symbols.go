package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// DebugReader serves source locations and method scopes loaded from a debug
// symbol file. A reader is a scoped resource: callers must Close it once the
// module it belongs to is discarded.
type DebugReader interface {
	m.SourceLocationProvider
	io.Closer

	// Scope returns the line range of the method body.
	Scope(method string) (m.MethodScope, bool)
}

// DebugWriter collects method symbols while a module is written and commits
// them to disk on Close.
type DebugWriter interface {
	io.Closer

	DefineMethod(method string, points []SequencePoint)
}

// DebugSymbolStore opens and creates debug symbol files.
type DebugSymbolStore interface {
	OpenReader(ctx context.Context, path m.Path) (DebugReader, error)
	// CreateWriter prepares a writer for path. Scopes missing from the
	// defined points are taken from source when it is not nil.
	CreateWriter(ctx context.Context, path m.Path, source DebugReader) (DebugWriter, error)
}

// SequencePoint binds an instruction offset to a source location.
type SequencePoint struct {
	Offset           int `yaml:"offset"`
	m.SourceLocation `yaml:",inline"`
}

// MethodSymbols is the debug information of one method.
type MethodSymbols struct {
	Signature string          `yaml:"signature"`
	Scope     m.MethodScope   `yaml:"scope"`
	Points    []SequencePoint `yaml:"points,omitempty"`
}

type symbolDocument struct {
	Methods []MethodSymbols `yaml:"methods"`
}

// YAMLDebugSymbolStore keeps debug symbols as YAML documents.
type YAMLDebugSymbolStore struct {
	fs afero.Fs
}

// NewYAMLDebugSymbolStore constructs a store backed by fs.
func NewYAMLDebugSymbolStore(fs afero.Fs) *YAMLDebugSymbolStore {
	return &YAMLDebugSymbolStore{fs: fs}
}

type methodIndex struct {
	scope  m.MethodScope
	points map[int]m.SourceLocation
}

type yamlDebugReader struct {
	mu      sync.RWMutex
	path    m.Path
	methods map[string]*methodIndex
}

// OpenReader loads the symbol file at path.
func (s *YAMLDebugSymbolStore) OpenReader(ctx context.Context, path m.Path) (DebugReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read debug symbols %s: %w", path, err)
	}

	var doc symbolDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse debug symbols %s: %w", path, err)
	}

	methods := make(map[string]*methodIndex, len(doc.Methods))
	for _, ms := range doc.Methods {
		idx := &methodIndex{scope: ms.Scope, points: make(map[int]m.SourceLocation, len(ms.Points))}
		for _, p := range ms.Points {
			idx.points[p.Offset] = p.SourceLocation
		}

		methods[ms.Signature] = idx
	}

	slog.Debug("opened debug symbols", "path", path, "methods", len(methods))

	return &yamlDebugReader{path: path, methods: methods}, nil
}

func (r *yamlDebugReader) Location(method string, offset int) (m.SourceLocation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.methods[method]
	if !ok {
		return m.SourceLocation{}, false
	}

	loc, ok := idx.points[offset]

	return loc, ok
}

func (r *yamlDebugReader) Scope(method string) (m.MethodScope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.methods[method]
	if !ok {
		return m.MethodScope{}, false
	}

	return idx.scope, true
}

// Close drops the loaded symbols. Lookups after Close find nothing.
func (r *yamlDebugReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.methods != nil {
		slog.Debug("closed debug symbols", "path", r.path)
	}

	r.methods = nil

	return nil
}

type yamlDebugWriter struct {
	fs      afero.Fs
	path    m.Path
	source  DebugReader
	methods []MethodSymbols
	closed  bool
}

// CreateWriter returns a writer committing to path on Close.
func (s *YAMLDebugSymbolStore) CreateWriter(ctx context.Context, path m.Path, source DebugReader) (DebugWriter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &yamlDebugWriter{fs: s.fs, path: path, source: source}, nil
}

func (w *yamlDebugWriter) DefineMethod(method string, points []SequencePoint) {
	ms := MethodSymbols{Signature: method, Points: points}

	if w.source != nil {
		if scope, ok := w.source.Scope(method); ok {
			ms.Scope = scope
		}
	}

	if ms.Scope == (m.MethodScope{}) {
		ms.Scope = scopeOf(points)
	}

	w.methods = append(w.methods, ms)
}

func (w *yamlDebugWriter) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	content, err := yaml.Marshal(symbolDocument{Methods: w.methods})
	if err != nil {
		return fmt.Errorf("failed to encode debug symbols: %w", err)
	}

	return WriteFileAtomic(w.fs, w.path, func(out io.Writer) error {
		_, err := out.Write(content)
		return err
	})
}

func scopeOf(points []SequencePoint) m.MethodScope {
	var scope m.MethodScope

	for i, p := range points {
		end := p.EndLine
		if end == 0 {
			end = p.Line
		}

		if i == 0 || p.Line < scope.StartLine {
			scope.StartLine = p.Line
		}

		if end > scope.EndLine {
			scope.EndLine = end
		}
	}

	return scope
}
