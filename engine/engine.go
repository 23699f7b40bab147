package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/host-offload/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages
	// (64KB each). 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// DisableWASI skips instantiating wasi_snapshot_preview1. Guests
	// built without a WASI target do not need it.
	DisableWASI bool
}

// Engine compiles and instantiates guest modules on a shared wazero
// runtime. One engine hosts at most one WASI module instance; guest
// instances are created per LoadModule/Instantiate pair.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
}

// New creates an engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	if !c.DisableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			_ = rt.Close(ctx)
			return nil, errors.Load("instantiate wasi_snapshot_preview1", err)
		}
	}

	Logger().Debug("engine created",
		zap.Uint32("memory_limit_pages", c.MemoryLimitPages),
		zap.Bool("wasi", !c.DisableWASI))

	return &Engine{runtime: rt, cfg: c}, nil
}

// Runtime exposes the underlying wazero runtime so host modules can be
// registered against it before guests are instantiated.
func (e *Engine) Runtime() wazero.Runtime {
	return e.runtime
}

// LoadModule compiles a guest module. The bytes must be a core wasm
// binary; compilation validates them fully.
func (e *Engine) LoadModule(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	Logger().Debug("module compiled", zap.Int("size", len(wasmBytes)))

	return &Module{
		engine:   e,
		compiled: compiled,
	}, nil
}

// Close releases all runtime resources, including every live instance.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
