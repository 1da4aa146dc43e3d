package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/spf13/afero"

	"github.com/pavzaj/visualmutator/internal/adapter"
	m "github.com/pavzaj/visualmutator/internal/model"
)

// Debug symbol extensions. Symbols are read from a ".pdbx" sidecar next to
// the module and written as ".pdb" next to the persisted module.
const (
	DefaultDebugReadExtension  = ".pdbx"
	DefaultDebugWriteExtension = ".pdb"
)

// ModuleRegistry owns the set of loaded modules and mediates every decompile,
// copy, persist and cleanup action on them.
//
// The registry lock guards only its bookkeeping (registration, substitution,
// cleanup). Decompiling, copying and persisting run outside of it, so mutant
// workers holding their own clones never wait on each other.
type ModuleRegistry interface {
	// Load decompiles the module at path and registers it under its declared
	// name. Nothing is registered when Load fails.
	Load(ctx context.Context, path m.Path) (*Module, error)

	// Modules returns the registered modules in load order.
	Modules() []*Module

	// Find returns the registered module with the given name.
	Find(name string) (*Module, bool)

	// Clone returns an unregistered deep copy of the module's current tree.
	Clone(ctx context.Context, mod *Module) (*m.ModuleTree, error)

	// CloneWithFreshDecompile decompiles the module's source file again into
	// a new registry. The returned module owns that registry; call Release
	// when done with it.
	CloneWithFreshDecompile(ctx context.Context, mod *Module) (*Module, error)

	// Persist writes the module's current tree to dest, plus debug symbols
	// when the module was loaded with them.
	Persist(ctx context.Context, mod *Module, dest m.Path) error

	// PersistTree writes tree, typically a mutated clone of mod, to dest
	// using mod's debug symbols.
	PersistTree(ctx context.Context, mod *Module, tree *m.ModuleTree, dest m.Path) error

	// WriteTo streams the module's current tree to w without debug symbols.
	WriteTo(ctx context.Context, mod *Module, w io.Writer) error

	// Substitute replaces the registered tree of mod.
	Substitute(mod *Module, tree *m.ModuleTree) error

	// Merge substitutes each tree into the registered module of the same name.
	Merge(trees ...*m.ModuleTree) error

	// Cleanup releases every debug reader and clears the registered set.
	Cleanup() error
}

// Module is one loaded binary module, owned by the registry that loaded it.
type Module struct {
	Name string
	Path m.Path

	owner *moduleRegistry
	tree  *m.ModuleTree
	debug adapter.DebugReader
	sub   *moduleRegistry
}

// Tree returns the module's current code-model tree. It is nil once the
// owning registry was cleaned up.
func (mod *Module) Tree() *m.ModuleTree {
	if mod.owner == nil {
		return mod.tree
	}

	mod.owner.mu.Lock()
	defer mod.owner.mu.Unlock()

	return mod.tree
}

// HasDebugSymbols reports whether a debug reader is attached.
func (mod *Module) HasDebugSymbols() bool {
	if mod.owner == nil {
		return mod.debug != nil
	}

	mod.owner.mu.Lock()
	defer mod.owner.mu.Unlock()

	return mod.debug != nil
}

// Release cleans up the private registry of a module obtained from
// CloneWithFreshDecompile. It is a no-op for other modules.
func (mod *Module) Release() error {
	if mod.sub == nil {
		return nil
	}

	return mod.sub.Cleanup()
}

// RegistryOption configures a registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	debugReadExt  string
	debugWriteExt string
	metrics       *Metrics
}

// WithDebugExtensions overrides the sidecar extensions used to find and emit
// debug symbols.
func WithDebugExtensions(read, write string) RegistryOption {
	return func(c *registryConfig) {
		if read != "" {
			c.debugReadExt = read
		}

		if write != "" {
			c.debugWriteExt = write
		}
	}
}

// WithMetrics makes the registry record into mt.
func WithMetrics(mt *Metrics) RegistryOption {
	return func(c *registryConfig) {
		if mt != nil {
			c.metrics = mt
		}
	}
}

type moduleRegistry struct {
	mu      sync.Mutex
	modules []*Module

	fs      afero.Fs
	codec   adapter.ModuleCodec
	symbols adapter.DebugSymbolStore
	copier  adapter.TreeCopier
	cfg     registryConfig
}

// NewModuleRegistry constructs an empty registry backed by the provided codec services.
func NewModuleRegistry(
	fs afero.Fs,
	codec adapter.ModuleCodec,
	symbols adapter.DebugSymbolStore,
	copier adapter.TreeCopier,
	opts ...RegistryOption,
) ModuleRegistry {
	return newModuleRegistry(fs, codec, symbols, copier, opts...)
}

func newModuleRegistry(
	fs afero.Fs,
	codec adapter.ModuleCodec,
	symbols adapter.DebugSymbolStore,
	copier adapter.TreeCopier,
	opts ...RegistryOption,
) *moduleRegistry {
	cfg := registryConfig{
		debugReadExt:  DefaultDebugReadExtension,
		debugWriteExt: DefaultDebugWriteExtension,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.metrics == nil {
		cfg.metrics = NewMetrics(nil)
	}

	return &moduleRegistry{fs: fs, codec: codec, symbols: symbols, copier: copier, cfg: cfg}
}

// spawn returns an empty registry sharing r's services and configuration.
func (r *moduleRegistry) spawn() *moduleRegistry {
	return &moduleRegistry{fs: r.fs, codec: r.codec, symbols: r.symbols, copier: r.copier, cfg: r.cfg}
}

func (r *moduleRegistry) Load(ctx context.Context, path m.Path) (mod *Module, err error) {
	defer func() { r.cfg.metrics.record(opLoad, err) }()

	slog.Info("Decompiling module", "path", path)

	mod, err = r.decompile(ctx, path)
	if err != nil {
		slog.Error("Failed to decompile module", "path", path, "error", err)
		return nil, err
	}

	if err := r.register(mod); err != nil {
		slog.Error("Failed to register module", "path", path, "module", mod.Name, "error", err)
		r.closeReader(mod.debug, path)

		return nil, err
	}

	return mod, nil
}

func (r *moduleRegistry) decompile(ctx context.Context, path m.Path) (*Module, error) {
	reader, err := r.openDebugReader(ctx, path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	tree, err := r.codec.Decompile(ctx, path, reader)
	if err != nil {
		r.closeReader(reader, path)
		return nil, &LoadError{Path: path, Err: err}
	}

	return &Module{Name: tree.Name, Path: path, tree: tree, debug: reader}, nil
}

// openDebugReader opens the sidecar symbols of path, returning a nil reader
// when there is no sidecar.
func (r *moduleRegistry) openDebugReader(ctx context.Context, path m.Path) (adapter.DebugReader, error) {
	sidecar := path.ChangeExtension(r.cfg.debugReadExt)

	exists, err := adapter.FileExists(r.fs, sidecar)
	if err != nil {
		return nil, fmt.Errorf("failed to check debug symbols %s: %w", sidecar, err)
	}

	if !exists {
		slog.Debug("No debug symbols", "path", sidecar)
		return nil, nil
	}

	reader, err := r.symbols.OpenReader(ctx, sidecar)
	if err != nil {
		return nil, err
	}

	r.cfg.metrics.openDebugReaders.Inc()

	return reader, nil
}

func (r *moduleRegistry) closeReader(reader adapter.DebugReader, path m.Path) {
	if reader == nil {
		return
	}

	if err := reader.Close(); err != nil {
		slog.Warn("Failed to close debug symbols", "path", path, "error", err)
	}

	r.cfg.metrics.openDebugReaders.Dec()
}

func (r *moduleRegistry) register(mod *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.modules {
		if existing.Name == mod.Name {
			return &LoadError{
				Path: mod.Path,
				Err:  fmt.Errorf("module %q already registered from %s", mod.Name, existing.Path),
			}
		}
	}

	mod.owner = r
	r.modules = append(r.modules, mod)

	return nil
}

func (r *moduleRegistry) Modules() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.modules)
}

func (r *moduleRegistry) Find(name string) (*Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mod := range r.modules {
		if mod.Name == name {
			return mod, true
		}
	}

	return nil, false
}

func (r *moduleRegistry) ownsLocked(mod *Module) bool {
	return mod != nil && mod.owner == r && slices.Contains(r.modules, mod)
}

// snapshot returns the current tree and reader of a registered module.
func (r *moduleRegistry) snapshot(mod *Module) (*m.ModuleTree, adapter.DebugReader, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ownsLocked(mod) {
		return nil, nil, notRegistered(mod)
	}

	return mod.tree, mod.debug, nil
}

func notRegistered(mod *Module) error {
	if mod == nil {
		return fmt.Errorf("%w: nil module", ErrNotRegistered)
	}

	return fmt.Errorf("%w: %s", ErrNotRegistered, mod.Name)
}

func (r *moduleRegistry) Clone(ctx context.Context, mod *Module) (tree *m.ModuleTree, err error) {
	defer func() { r.cfg.metrics.record(opClone, err) }()

	src, reader, err := r.snapshot(mod)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var locations m.SourceLocationProvider
	if reader != nil {
		locations = reader
	}

	tree, err = r.copier.DeepCopy(src, locations)
	if err != nil {
		slog.Error("Failed to copy module", "module", mod.Name, "error", err)
		return nil, &CorruptCopyError{Module: mod.Name, Err: err}
	}

	return tree, nil
}

func (r *moduleRegistry) CloneWithFreshDecompile(ctx context.Context, mod *Module) (*Module, error) {
	if _, _, err := r.snapshot(mod); err != nil {
		return nil, err
	}

	sub := r.spawn()

	fresh, err := sub.Load(ctx, mod.Path)
	if err != nil {
		_ = sub.Cleanup()
		return nil, err
	}

	fresh.sub = sub

	return fresh, nil
}

func (r *moduleRegistry) Persist(ctx context.Context, mod *Module, dest m.Path) error {
	tree, reader, err := r.snapshot(mod)
	if err != nil {
		return err
	}

	return r.persist(ctx, mod, tree, reader, dest)
}

func (r *moduleRegistry) PersistTree(ctx context.Context, mod *Module, tree *m.ModuleTree, dest m.Path) error {
	if tree == nil {
		return errors.New("nil module tree")
	}

	_, reader, err := r.snapshot(mod)
	if err != nil {
		return err
	}

	return r.persist(ctx, mod, tree, reader, dest)
}

func (r *moduleRegistry) persist(ctx context.Context, mod *Module, tree *m.ModuleTree, reader adapter.DebugReader, dest m.Path) (err error) {
	defer func() { r.cfg.metrics.record(opPersist, err) }()

	slog.Info("Writing module", "module", mod.Name, "path", dest)

	var (
		symbols   adapter.DebugWriter
		locations m.SourceLocationProvider
		debugPath m.Path
	)

	if reader != nil {
		locations = reader
		debugPath = dest.ChangeExtension(r.cfg.debugWriteExt)

		symbols, err = r.symbols.CreateWriter(ctx, debugPath, reader)
		if err != nil {
			slog.Error("Failed to create debug symbol writer", "path", debugPath, "error", err)
			return &IOError{Path: debugPath, Err: err}
		}
	}

	err = adapter.WriteFileAtomic(r.fs, dest, func(w io.Writer) error {
		return r.codec.Write(ctx, tree, w, locations, symbols)
	})
	if err != nil {
		slog.Error("Failed to write module", "module", mod.Name, "path", dest, "error", err)
		return &IOError{Path: dest, Err: err}
	}

	if symbols == nil {
		return nil
	}

	if err := symbols.Close(); err != nil {
		slog.Error("Failed to write debug symbols", "path", debugPath, "error", err)

		if rmErr := r.fs.Remove(string(dest)); rmErr != nil {
			slog.Warn("Failed to remove module without debug symbols", "path", dest, "error", rmErr)
		}

		return &IOError{Path: debugPath, Err: err}
	}

	return nil
}

func (r *moduleRegistry) WriteTo(ctx context.Context, mod *Module, w io.Writer) error {
	tree, _, err := r.snapshot(mod)
	if err != nil {
		return err
	}

	if err := r.codec.Write(ctx, tree, w, nil, nil); err != nil {
		return &IOError{Path: mod.Path, Err: err}
	}

	return nil
}

func (r *moduleRegistry) Substitute(mod *Module, tree *m.ModuleTree) (err error) {
	defer func() { r.cfg.metrics.record(opSubstitute, err) }()

	if tree == nil {
		return errors.New("nil module tree")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ownsLocked(mod) {
		return notRegistered(mod)
	}

	if tree.Name != mod.Name {
		return fmt.Errorf("cannot substitute module %q with tree of %q", mod.Name, tree.Name)
	}

	mod.tree = tree

	slog.Debug("Substituted module tree", "module", mod.Name)

	return nil
}

func (r *moduleRegistry) Merge(trees ...*m.ModuleTree) (err error) {
	defer func() { r.cfg.metrics.record(opSubstitute, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	targets := make([]*Module, len(trees))

	for i, tree := range trees {
		if tree == nil {
			return errors.New("nil module tree")
		}

		idx := slices.IndexFunc(r.modules, func(mod *Module) bool { return mod.Name == tree.Name })
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotRegistered, tree.Name)
		}

		targets[i] = r.modules[idx]
	}

	for i, mod := range targets {
		mod.tree = trees[i]
	}

	return nil
}

func (r *moduleRegistry) Cleanup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for _, mod := range r.modules {
		if mod.debug != nil {
			if err := mod.debug.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close debug symbols of %s: %w", mod.Name, err))
			}

			r.cfg.metrics.openDebugReaders.Dec()
			mod.debug = nil
		}

		mod.tree = nil

		if mod.sub != nil && mod.sub != r {
			if err := mod.sub.Cleanup(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(r.modules) > 0 {
		slog.Debug("Cleaned up registry", "modules", len(r.modules))
	}

	r.modules = nil

	return errors.Join(errs...)
}
