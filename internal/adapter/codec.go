package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// ErrNotModule reports that a file is not a recognized binary module.
var ErrNotModule = errors.New("not a binary module")

// moduleMagic prefixes every binary module; the last byte is the format version.
var moduleMagic = []byte{'V', 'M', 'O', 'D', 1}

// ModuleCodec decompiles binary modules into code-model trees and writes trees
// back to binary.
type ModuleCodec interface {
	// Decompile reads the module at path. When symbols is not nil the
	// instructions of the returned tree carry their source locations.
	// Files that are not binary modules yield an error wrapping ErrNotModule.
	Decompile(ctx context.Context, path m.Path, symbols DebugReader) (*m.ModuleTree, error)

	// Write encodes tree to w. When symbols is not nil every method is
	// defined on it, with locations taken from locations or, failing that,
	// from the instructions themselves.
	Write(ctx context.Context, tree *m.ModuleTree, w io.Writer, locations m.SourceLocationProvider, symbols DebugWriter) error
}

// MsgpackModuleCodec stores modules as a magic header followed by a msgpack payload.
type MsgpackModuleCodec struct {
	fs afero.Fs
}

// NewMsgpackModuleCodec constructs a codec reading from fs.
func NewMsgpackModuleCodec(fs afero.Fs) *MsgpackModuleCodec {
	return &MsgpackModuleCodec{fs: fs}
}

// Decompile implements ModuleCodec.
func (c *MsgpackModuleCodec) Decompile(ctx context.Context, path m.Path, symbols DebugReader) (*m.ModuleTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := c.fs.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer func() { _ = f.Close() }()

	header := make([]byte, len(moduleMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotModule)
		}

		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !bytes.Equal(header, moduleMagic) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotModule)
	}

	var tree m.ModuleTree
	if err := msgpack.NewDecoder(f).Decode(&tree); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrNotModule, err)
	}

	if tree.Name == "" {
		return nil, fmt.Errorf("%s: %w: module has no name", path, ErrNotModule)
	}

	if err := checkNodes(tree.Types); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrNotModule, err)
	}

	tree.Link()

	if symbols != nil {
		attachLocations(&tree, symbols)
	}

	return &tree, nil
}

// Write implements ModuleCodec.
func (c *MsgpackModuleCodec) Write(ctx context.Context, tree *m.ModuleTree, w io.Writer, locations m.SourceLocationProvider, symbols DebugWriter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if tree == nil {
		return errors.New("nil module tree")
	}

	if _, err := w.Write(moduleMagic); err != nil {
		return fmt.Errorf("failed to write module header: %w", err)
	}

	if err := msgpack.NewEncoder(w).Encode(tree); err != nil {
		return fmt.Errorf("failed to encode module %s: %w", tree.Name, err)
	}

	if symbols != nil {
		defineMethods(tree, locations, symbols)
	}

	return nil
}

// checkNodes rejects null type and member entries, which the payload format
// allows but the code model does not.
func checkNodes(types []*m.TypeDefinition) error {
	for i, td := range types {
		if td == nil {
			return fmt.Errorf("nil type at index %d", i)
		}

		counts := []struct {
			kind m.ElementKind
			nils int
		}{
			{m.KindField, countNil(td.Fields)},
			{m.KindMethod, countNil(td.Methods)},
			{m.KindProperty, countNil(td.Properties)},
			{m.KindEvent, countNil(td.Events)},
		}

		for _, c := range counts {
			if c.nils > 0 {
				return fmt.Errorf("nil %s in type %s", c.kind, td.FullName())
			}
		}

		if err := checkNodes(td.NestedTypes); err != nil {
			return err
		}
	}

	return nil
}

func countNil[T any](items []*T) int {
	n := 0

	for _, item := range items {
		if item == nil {
			n++
		}
	}

	return n
}

func attachLocations(tree *m.ModuleTree, symbols m.SourceLocationProvider) {
	for _, td := range tree.AllTypes() {
		for _, md := range td.Methods {
			if md == nil {
				continue
			}

			signature := md.FullName()

			for i := range md.Body {
				if loc, ok := symbols.Location(signature, md.Body[i].Offset); ok {
					md.Body[i].Location = &loc
				}
			}
		}
	}
}

func defineMethods(tree *m.ModuleTree, locations m.SourceLocationProvider, symbols DebugWriter) {
	for _, td := range tree.AllTypes() {
		for _, md := range td.Methods {
			if md == nil {
				continue
			}

			signature := md.FullName()
			points := make([]SequencePoint, 0, len(md.Body))

			for _, ins := range md.Body {
				if locations != nil {
					if loc, ok := locations.Location(signature, ins.Offset); ok {
						points = append(points, SequencePoint{Offset: ins.Offset, SourceLocation: loc})
						continue
					}
				}

				if ins.Location != nil {
					points = append(points, SequencePoint{Offset: ins.Offset, SourceLocation: *ins.Location})
				}
			}

			symbols.DefineMethod(signature, points)
		}
	}
}
