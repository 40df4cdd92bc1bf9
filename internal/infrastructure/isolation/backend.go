// Package isolation is the wazero-backed sandbox the Plugin Manager drives
// through the manager.Isolation port: it compiles and instantiates WASM
// modules, enforces a shared memory ceiling and per-call wall-time budgets,
// and reports resource usage back for the manager's ResourceUsage snapshot.
package isolation

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"golang.org/x/sync/singleflight"

	"github.com/lion-wasm/lion/internal/application/manager"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// HostRegistrar wires the ABI's host functions (internal/infrastructure/
// hostfuncs) into a freshly constructed runtime. Kept as a callback so this
// package never needs to import hostfuncs, which in turn depends on the
// capability checker.
type HostRegistrar func(ctx context.Context, r wazero.Runtime) error

// Backend is the concrete manager.Isolation implementation.
type Backend struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	resolver *sourceResolver

	group    singleflight.Group
	mu       sync.Mutex
	compiled map[digest]wazero.CompiledModule
}

// New builds a Backend sharing one wazero.Runtime (and therefore one memory
// ceiling) across every plugin it instantiates. memoryLimitMB: 0 selects the
// 100MB kernel default, -1 disables the ceiling, >0 is an explicit cap.
// cacheDir, if non-empty, persists URL-fetched module blobs across process
// restarts.
func New(ctx context.Context, memoryLimitMB int, cacheDir string, registerHostFuncs HostRegistrar) (*Backend, error) {
	if memoryLimitMB < -1 {
		return nil, fmt.Errorf("isolation: invalid memory limit %d (must be >= -1)", memoryLimitMB)
	}
	if memoryLimitMB == 0 {
		memoryLimitMB = int(plugin.DefaultResourceLimits().MaxMemoryBytes / (1024 * 1024))
	}

	cache := wazero.NewCompilationCache()
	config := wazero.NewRuntimeConfig().WithCompilationCache(cache)
	if memoryLimitMB > 0 {
		pages := uint32(memoryLimitMB * 16) //nolint:gosec // G115: validated above, well under uint32 range
		config = config.WithMemoryLimitPages(pages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, config)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		_ = cache.Close(ctx)
		return nil, fmt.Errorf("isolation: instantiate WASI: %w", err)
	}
	if registerHostFuncs != nil {
		if err := registerHostFuncs(ctx, rt); err != nil {
			_ = rt.Close(ctx)
			_ = cache.Close(ctx)
			return nil, fmt.Errorf("isolation: register host functions: %w", err)
		}
	}

	return &Backend{
		runtime:  rt,
		cache:    cache,
		resolver: newSourceResolver(cacheDir),
		compiled: make(map[digest]wazero.CompiledModule),
	}, nil
}

// Close releases the runtime and its compilation cache. Intended for
// graceful shutdown of long-running hosts; CLI invocations can skip it.
func (b *Backend) Close(ctx context.Context) error {
	err := b.runtime.Close(ctx)
	if cerr := b.cache.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// compile resolves wasmBytes to a cached CompiledModule, deduplicating
// concurrent compiles of identical bytes via a singleflight group keyed by
// content digest so two plugins sharing a module body only pay the
// compilation cost once.
func (b *Backend) compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	d := digestOf(wasmBytes)

	b.mu.Lock()
	if m, ok := b.compiled[d]; ok {
		b.mu.Unlock()
		return m, nil
	}
	b.mu.Unlock()

	v, err, _ := b.group.Do(string(d), func() (interface{}, error) {
		b.mu.Lock()
		if m, ok := b.compiled[d]; ok {
			b.mu.Unlock()
			return m, nil
		}
		b.mu.Unlock()

		compiled, err := b.runtime.CompileModule(ctx, wasmBytes)
		if err != nil {
			return nil, &CompileError{Cause: err}
		}

		b.mu.Lock()
		b.compiled[d] = compiled
		b.mu.Unlock()
		return compiled, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(wazero.CompiledModule), nil
}

// Instantiate satisfies manager.Isolation: resolve the manifest's Source to
// WASM bytes, compile (or reuse a cached compile of) the module, and start
// one long-lived instance the manager will invoke repeatedly via Call.
func (b *Backend) Instantiate(ctx context.Context, id ids.PluginID, source plugin.Source, limits plugin.ResourceLimits) (manager.InstanceHandle, error) {
	limits = limits.WithDefaults()

	wasmBytes, err := b.resolver.resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	compiled, err := b.compile(ctx, wasmBytes)
	if err != nil {
		return nil, err
	}

	config := wazero.NewModuleConfig().
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr)

	mod, err := b.runtime.InstantiateModule(ctx, compiled, config)
	if err != nil {
		return nil, &CompileError{Cause: err}
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, &TrapError{Function: "_initialize", Cause: err}
		}
	}

	return &Instance{id: id, module: mod, limits: limits}, nil
}
