package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pavzaj/visualmutator/internal/adapter"
	"github.com/pavzaj/visualmutator/internal/adapter/mocks"
	m "github.com/pavzaj/visualmutator/internal/model"
)

func fileExists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()

	exists, err := adapter.FileExists(fs, m.Path(path))
	require.NoError(t, err)

	return exists
}

func TestModuleRegistry_LoadWithoutDebugSymbols(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))

	registry := newTestRegistry(fs)
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)
	assert.Equal(t, "Calc", mod.Name)
	assert.False(t, mod.HasDebugSymbols())
	require.NotNil(t, mod.Tree())

	require.NoError(t, registry.Persist(context.Background(), mod, "/out/Calc.vmod"))

	assert.True(t, fileExists(t, fs, "/out/Calc.vmod"))
	assert.False(t, fileExists(t, fs, "/out/Calc.pdb"))
	assert.False(t, fileExists(t, fs, "/out/Calc.pdbx"))
}

func TestModuleRegistry_LoadNonBinary(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bin/readme.txt", []byte("not a module"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bin/readme.pdbx", []byte(sampleSymbols), 0o644))

	metrics := NewMetrics(prometheus.NewRegistry())
	registry := newTestRegistry(fs, WithMetrics(metrics))

	_, err := registry.Load(context.Background(), "/bin/readme.txt")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, m.Path("/bin/readme.txt"), loadErr.Path)
	assert.ErrorIs(t, err, adapter.ErrNotModule)
	assert.Empty(t, registry.Modules())
	assert.Zero(t, testutil.ToFloat64(metrics.openDebugReaders))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operations.WithLabelValues(opLoad, statusFailed)))
}

func TestModuleRegistry_LoadMissingFile(t *testing.T) {
	registry := newTestRegistry(afero.NewMemMapFs())

	_, err := registry.Load(context.Background(), "/bin/missing.vmod")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Empty(t, registry.Modules())
}

func TestModuleRegistry_LoadRejectsNilMembers(t *testing.T) {
	fs := afero.NewMemMapFs()

	tree := sampleModule("Calc")
	tree.Types[0].Methods = append([]*m.MethodDefinition{nil}, tree.Types[0].Methods...)
	writeModuleFile(t, fs, "/bin/Calc.vmod", tree)
	require.NoError(t, afero.WriteFile(fs, "/bin/Calc.pdbx", []byte(sampleSymbols), 0o644))

	metrics := NewMetrics(prometheus.NewRegistry())
	registry := newTestRegistry(fs, WithMetrics(metrics))

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, m.Path("/bin/Calc.vmod"), loadErr.Path)
	assert.ErrorIs(t, err, adapter.ErrNotModule)
	assert.Nil(t, mod)
	assert.Empty(t, registry.Modules())
	assert.Zero(t, testutil.ToFloat64(metrics.openDebugReaders))
}

func TestModuleRegistry_DebugSymbolsLifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))
	require.NoError(t, afero.WriteFile(fs, "/bin/Calc.pdbx", []byte(sampleSymbols), 0o644))

	metrics := NewMetrics(prometheus.NewRegistry())
	registry := newTestRegistry(fs, WithMetrics(metrics))

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)
	assert.True(t, mod.HasDebugSymbols())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.openDebugReaders))

	add := mod.Tree().Types[0].Methods[0]
	require.NotNil(t, add.Body[2].Location)
	assert.Equal(t, 12, add.Body[2].Location.Line)

	t.Run("persist writes debug symbols", func(t *testing.T) {
		require.NoError(t, registry.Persist(context.Background(), mod, "/out/Calc.vmod"))

		assert.True(t, fileExists(t, fs, "/out/Calc.vmod"))
		require.True(t, fileExists(t, fs, "/out/Calc.pdb"))

		reader, err := adapter.NewYAMLDebugSymbolStore(fs).OpenReader(context.Background(), "/out/Calc.pdb")
		require.NoError(t, err)
		defer reader.Close()

		scope, ok := reader.Scope(addSignature)
		require.True(t, ok)
		assert.Equal(t, m.MethodScope{StartLine: 10, EndLine: 13}, scope)

		loc, ok := reader.Location(addSignature, 2)
		require.True(t, ok)
		assert.Equal(t, 12, loc.Line)
	})

	t.Run("persisted module loads back", func(t *testing.T) {
		other := newTestRegistry(fs, WithDebugExtensions(".pdb", ".pdb"))
		defer other.Cleanup()

		reloaded, err := other.Load(context.Background(), "/out/Calc.vmod")
		require.NoError(t, err)
		assert.True(t, reloaded.HasDebugSymbols())
		assert.Equal(t, addSignature, reloaded.Tree().Types[0].Methods[0].FullName())
	})

	t.Run("cleanup releases readers", func(t *testing.T) {
		require.NoError(t, registry.Cleanup())
		assert.Zero(t, testutil.ToFloat64(metrics.openDebugReaders))
		assert.Empty(t, registry.Modules())
		assert.Nil(t, mod.Tree())
		assert.False(t, mod.HasDebugSymbols())

		require.NoError(t, registry.Cleanup())
		assert.Zero(t, testutil.ToFloat64(metrics.openDebugReaders))

		_, err := registry.Clone(context.Background(), mod)
		require.ErrorIs(t, err, ErrNotRegistered)
	})
}

func TestModuleRegistry_DuplicateModuleName(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/a/Calc.vmod", sampleModule("Calc"))
	writeModuleFile(t, fs, "/b/Calc.vmod", sampleModule("Calc"))
	require.NoError(t, afero.WriteFile(fs, "/b/Calc.pdbx", []byte(sampleSymbols), 0o644))

	metrics := NewMetrics(prometheus.NewRegistry())
	registry := newTestRegistry(fs, WithMetrics(metrics))
	defer registry.Cleanup()

	first, err := registry.Load(context.Background(), "/a/Calc.vmod")
	require.NoError(t, err)

	_, err = registry.Load(context.Background(), "/b/Calc.vmod")

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, []*Module{first}, registry.Modules())
	assert.Zero(t, testutil.ToFloat64(metrics.openDebugReaders))

	found, ok := registry.Find("Calc")
	require.True(t, ok)
	assert.Same(t, first, found)

	_, ok = registry.Find("Other")
	assert.False(t, ok)
}

func TestModuleRegistry_ConcurrentClonesAreIsolated(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))

	registry := newTestRegistry(fs)
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	ref, err := Capture(mod.Tree().Types[0].Methods[0])
	require.NoError(t, err)

	const workers = 8

	clones := make([]*m.ModuleTree, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			clone, err := registry.Clone(context.Background(), mod)
			if err != nil {
				return
			}

			element, err := Resolve(ref, clone)
			if err != nil {
				return
			}

			element.(*m.MethodDefinition).Body[2].OpCode = fmt.Sprintf("op%d", i)
			clones[i] = clone
		}()
	}

	wg.Wait()

	assert.Equal(t, "add", mod.Tree().Types[0].Methods[0].Body[2].OpCode)

	for i, clone := range clones {
		require.NotNil(t, clone, "clone %d", i)
		assert.Equal(t, fmt.Sprintf("op%d", i), clone.Types[0].Methods[0].Body[2].OpCode)
	}
}

func TestModuleRegistry_SubstituteAndPersist(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))

	registry := newTestRegistry(fs)
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	clone, err := registry.Clone(context.Background(), mod)
	require.NoError(t, err)

	clone.Types[0].Methods[0].Body[2].OpCode = "sub"

	require.NoError(t, registry.Substitute(mod, clone))
	assert.Same(t, clone, mod.Tree())

	require.NoError(t, registry.Persist(context.Background(), mod, "/out/Calc.vmod"))

	persisted, err := adapter.NewMsgpackModuleCodec(fs).Decompile(context.Background(), "/out/Calc.vmod", nil)
	require.NoError(t, err)
	assert.Equal(t, "sub", persisted.Types[0].Methods[0].Body[2].OpCode)

	t.Run("rejects a tree of another module", func(t *testing.T) {
		err := registry.Substitute(mod, sampleModule("Other"))
		require.Error(t, err)
		assert.Same(t, clone, mod.Tree())
	})

	t.Run("rejects a foreign module", func(t *testing.T) {
		foreign := &Module{Name: "Calc"}
		err := registry.Substitute(foreign, sampleModule("Calc"))
		require.ErrorIs(t, err, ErrNotRegistered)
	})
}

func TestModuleRegistry_Merge(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))
	writeModuleFile(t, fs, "/bin/Util.vmod", sampleModule("Util"))

	registry := newTestRegistry(fs)
	defer registry.Cleanup()

	calc, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)
	util, err := registry.Load(context.Background(), "/bin/Util.vmod")
	require.NoError(t, err)

	before := calc.Tree()

	err = registry.Merge(sampleModule("Calc"), sampleModule("Unknown"))
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.Same(t, before, calc.Tree(), "failed merge changes nothing")

	newCalc, newUtil := sampleModule("Calc"), sampleModule("Util")
	require.NoError(t, registry.Merge(newUtil, newCalc))
	assert.Same(t, newCalc, calc.Tree())
	assert.Same(t, newUtil, util.Tree())
}

func TestModuleRegistry_CloneWithFreshDecompile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))
	require.NoError(t, afero.WriteFile(fs, "/bin/Calc.pdbx", []byte(sampleSymbols), 0o644))

	metrics := NewMetrics(prometheus.NewRegistry())
	registry := newTestRegistry(fs, WithMetrics(metrics))
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	mutated, err := registry.Clone(context.Background(), mod)
	require.NoError(t, err)
	mutated.Types[0].Methods[0].Body[2].OpCode = "mul"
	require.NoError(t, registry.Substitute(mod, mutated))

	fresh, err := registry.CloneWithFreshDecompile(context.Background(), mod)
	require.NoError(t, err)

	assert.Equal(t, "add", fresh.Tree().Types[0].Methods[0].Body[2].OpCode)
	assert.True(t, fresh.HasDebugSymbols())
	assert.Len(t, registry.Modules(), 1, "fresh module is not registered with the parent")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.openDebugReaders))

	require.NoError(t, fresh.Release())
	assert.Nil(t, fresh.Tree())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.openDebugReaders))

	require.NoError(t, mod.Release(), "release is a no-op for registered modules")
	assert.NotNil(t, mod.Tree())
}

func TestModuleRegistry_CloneCorruptTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))

	registry := newTestRegistry(fs)
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	corrupt := sampleModule("Calc")
	corrupt.Types = append(corrupt.Types, nil)
	require.NoError(t, registry.Substitute(mod, corrupt))

	_, err = registry.Clone(context.Background(), mod)

	var copyErr *CorruptCopyError
	require.ErrorAs(t, err, &copyErr)
	assert.Equal(t, "Calc", copyErr.Module)
	assert.ErrorIs(t, err, adapter.ErrMalformedTree)
}

func TestModuleRegistry_PersistWriteFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	codec := mocks.NewMockModuleCodec(t)

	codec.On("Decompile", mock.Anything, m.Path("/bin/Calc.vmod"), mock.Anything).Return(sampleModule("Calc"), nil)
	codec.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	registry := NewModuleRegistry(fs, codec, adapter.NewYAMLDebugSymbolStore(fs), adapter.NewStructuralCopier())
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	err = registry.Persist(context.Background(), mod, "/out/Calc.vmod")

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, m.Path("/out/Calc.vmod"), ioErr.Path)
	assert.False(t, fileExists(t, fs, "/out/Calc.vmod"))

	err = registry.WriteTo(context.Background(), mod, &bytes.Buffer{})
	require.ErrorAs(t, err, &ioErr)
}

type failingSymbolStore struct {
	adapter.DebugSymbolStore
}

type failingWriter struct{}

func (failingWriter) DefineMethod(string, []adapter.SequencePoint) {}

func (failingWriter) Close() error { return errors.New("symbols rejected") }

func (failingSymbolStore) CreateWriter(context.Context, m.Path, adapter.DebugReader) (adapter.DebugWriter, error) {
	return failingWriter{}, nil
}

func TestModuleRegistry_PersistDebugWriteFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))
	require.NoError(t, afero.WriteFile(fs, "/bin/Calc.pdbx", []byte(sampleSymbols), 0o644))

	store := failingSymbolStore{DebugSymbolStore: adapter.NewYAMLDebugSymbolStore(fs)}
	registry := NewModuleRegistry(fs, adapter.NewMsgpackModuleCodec(fs), store, adapter.NewStructuralCopier())
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	err = registry.Persist(context.Background(), mod, "/out/Calc.vmod")

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, m.Path("/out/Calc.pdb"), ioErr.Path)
	assert.False(t, fileExists(t, fs, "/out/Calc.vmod"), "no binary without its symbols")
}

func TestModuleRegistry_WriteTo(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))

	registry := newTestRegistry(fs)
	defer registry.Cleanup()

	mod, err := registry.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, registry.WriteTo(context.Background(), mod, &buf))

	require.NoError(t, afero.WriteFile(fs, "/out/stream.vmod", buf.Bytes(), 0o644))

	streamed, err := adapter.NewMsgpackModuleCodec(fs).Decompile(context.Background(), "/out/stream.vmod", nil)
	require.NoError(t, err)
	assert.Equal(t, "Calc", streamed.Name)
	assert.Equal(t, addSignature, streamed.Types[0].Methods[0].FullName())
	assert.False(t, fileExists(t, fs, "/out/stream.pdb"))
}

func TestModuleRegistry_ForeignModule(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeModuleFile(t, fs, "/bin/Calc.vmod", sampleModule("Calc"))

	owner := newTestRegistry(fs)
	defer owner.Cleanup()

	other := newTestRegistry(fs)
	defer other.Cleanup()

	mod, err := owner.Load(context.Background(), "/bin/Calc.vmod")
	require.NoError(t, err)

	_, err = other.Clone(context.Background(), mod)
	require.ErrorIs(t, err, ErrNotRegistered)

	err = other.Persist(context.Background(), mod, "/out/Calc.vmod")
	require.ErrorIs(t, err, ErrNotRegistered)

	_, err = other.CloneWithFreshDecompile(context.Background(), mod)
	require.ErrorIs(t, err, ErrNotRegistered)

	_, err = other.Clone(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotRegistered)
}
