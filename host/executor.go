package host

import (
	"context"
	"crypto/sha256"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/reglet-dev/guestcall/config"
	"github.com/reglet-dev/guestcall/domain/errors"
	"github.com/reglet-dev/guestcall/hostfuncs"
	wazeroadapter "github.com/reglet-dev/guestcall/infrastructure/wazero"
)

// Executor is the runtime context guests execute in.
type Executor struct {
	cfg     config.Runtime
	natives *hostfuncs.NativeRegistry
	args    []string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger

	mu       sync.Mutex
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled *lru.Cache[[sha256.Size]byte, wazero.CompiledModule]
	closed   bool
}

// NewExecutor acquires a runtime context. On failure nothing is left to
// release and the returned error is a *errors.LifecycleError.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		cfg:    config.Default().Runtime,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.natives == nil {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(
				hostfuncs.PanicRecoveryMiddleware(),
				hostfuncs.LoggingMiddleware(e.logger),
			),
			hostfuncs.WithBundle(hostfuncs.AllBundles()),
		)
		if err != nil {
			return nil, startError(fmt.Errorf("failed to create default registry: %w", err))
		}
		e.natives = reg
	}

	rc := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(e.cfg.MemoryLimitPages).
		WithCloseOnContextDone(e.cfg.CloseOnContextDone)
	if e.cfg.CompilationCacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(e.cfg.CompilationCacheDir)
		if err != nil {
			return nil, startError(fmt.Errorf("failed to open compilation cache: %w", err))
		}
		e.cache = cache
		rc = rc.WithCompilationCache(cache)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rc)
	e.runtime = rt

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		e.abort(ctx)
		return nil, startError(fmt.Errorf("failed to instantiate WASI: %w", err))
	}

	if err := wazeroadapter.RegisterWithRuntime(ctx, rt, e.natives,
		wazeroadapter.WithModuleName(e.cfg.NativeModule),
	); err != nil {
		e.abort(ctx)
		return nil, startError(fmt.Errorf("failed to register host functions: %w", err))
	}

	compiled, err := lru.NewWithEvict(e.cfg.ModuleCacheSize, func(_ [sha256.Size]byte, cm wazero.CompiledModule) {
		// Eviction has no caller context.
		_ = cm.Close(context.Background())
	})
	if err != nil {
		e.abort(ctx)
		return nil, startError(fmt.Errorf("failed to create module cache: %w", err))
	}
	e.compiled = compiled

	e.logger.DebugContext(ctx, "runtime started",
		"native_module", e.cfg.NativeModule,
		"natives", e.natives.Names(),
		"memory_limit_pages", e.cfg.MemoryLimitPages,
		"args", len(e.args))
	return e, nil
}

// abort releases a partially acquired context during NewExecutor.
func (e *Executor) abort(ctx context.Context) {
	_ = e.runtime.Close(ctx)
	if e.cache != nil {
		_ = e.cache.Close(ctx)
	}
}

// Close releases the runtime context and every guest loaded in it.
// Closing an already closed executor is a no-op.
func (e *Executor) Close(ctx context.Context) error {
	if e == nil {
		return errors.ErrNotStarted
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runtime == nil {
		return errors.ErrNotStarted
	}
	if e.closed {
		return nil
	}
	e.closed = true

	e.compiled.Purge()
	err := e.runtime.Close(ctx)
	if e.cache != nil {
		err = stdErrors.Join(err, e.cache.Close(ctx))
	}
	if err != nil {
		return &errors.LifecycleError{Op: "stop", Err: err}
	}

	e.logger.DebugContext(ctx, "runtime stopped")
	return nil
}

// NativeModule returns the import module name native functions are exported
// under. Guests must import them from this module.
func (e *Executor) NativeModule() string {
	return e.cfg.NativeModule
}

// Natives returns the native function registry exported to guests.
func (e *Executor) Natives() *hostfuncs.NativeRegistry {
	return e.natives
}

// LoadGuest compiles (or reuses) and instantiates a guest module.
func (e *Executor) LoadGuest(ctx context.Context, wasm []byte, opts ...GuestOption) (*Guest, error) {
	gc := guestConfig{
		requiredExports: defaultRequiredExports(),
	}
	for _, opt := range opts {
		opt(&gc)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runtime == nil || e.closed {
		return nil, errors.ErrNotStarted
	}

	compiled, err := e.compile(ctx, wasm)
	if err != nil {
		return nil, err
	}

	exports := compiled.ExportedFunctions()
	for _, name := range gc.requiredExports {
		if _, ok := exports[name]; !ok {
			return nil, &errors.ExportNotFoundError{Name: name}
		}
	}

	modCfg := wazero.NewModuleConfig().
		WithName(gc.name).
		WithArgs(e.args...).
		WithStdout(e.stdout).
		WithStderr(e.stderr).
		WithStartFunctions()

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate guest: %w", err)
	}

	g := &Guest{module: mod, logger: e.logger}
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, &errors.CallError{Export: "_initialize", Err: err}
		}
	}

	e.logger.DebugContext(ctx, "guest loaded", "guest", gc.name, "exports", g.Exports())
	return g, nil
}

// compile returns the compiled form of wasm, reusing earlier compilations of
// identical bytes. Callers hold e.mu.
func (e *Executor) compile(ctx context.Context, wasm []byte) (wazero.CompiledModule, error) {
	key := sha256.Sum256(wasm)
	if cm, ok := e.compiled.Get(key); ok {
		return cm, nil
	}

	cm, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile guest: %w", err)
	}
	e.compiled.Add(key, cm)
	return cm, nil
}

func startError(err error) error {
	return &errors.LifecycleError{Op: "start", Err: err}
}
