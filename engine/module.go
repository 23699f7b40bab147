package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/errors"
)

// Module is a compiled guest module, not yet instantiated.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	Name string

	// Args and Env are passed through to WASI-aware guests.
	Args []string
	Env  map[string]string

	// StartFunctions are run during instantiation ("_start" for WASI
	// command modules, "_initialize" for reactors). Empty means none:
	// exports are invoked explicitly by the caller.
	StartFunctions []string
}

// ImportsModule reports whether the compiled guest imports any function
// from the named module. Used to verify a guest actually binds the
// offload interface before running it.
func (m *Module) ImportsModule(name string) bool {
	for _, def := range m.compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == name {
			return true
		}
	}
	return false
}

// ImportedFrom returns the definitions of the functions the guest
// imports from the named module.
func (m *Module) ImportedFrom(name string) []api.FunctionDefinition {
	var defs []api.FunctionDefinition
	for _, def := range m.compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == name {
			defs = append(defs, def)
		}
	}
	return defs
}

// ExportNames returns the names of the module's exported functions.
func (m *Module) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Instantiate creates a running instance of the module.
func (m *Module) Instantiate(ctx context.Context, cfg *InstanceConfig) (*Instance, error) {
	modCfg := wazero.NewModuleConfig()

	if cfg != nil {
		if cfg.Name != "" {
			modCfg = modCfg.WithName(cfg.Name)
		}
		if len(cfg.Args) > 0 {
			modCfg = modCfg.WithArgs(cfg.Args...)
		}
		for k, v := range cfg.Env {
			modCfg = modCfg.WithEnv(k, v)
		}
		modCfg = modCfg.WithStartFunctions(cfg.StartFunctions...)
	} else {
		modCfg = modCfg.WithStartFunctions()
	}

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modCfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	return &Instance{mod: mod}, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Instance is a running guest module.
type Instance struct {
	mod api.Module
}

// Call invokes an exported function by name with raw stack values.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "call "+name)
	}
	return results, nil
}

// Memory returns the instance's linear memory, or nil if the guest
// exports none.
func (i *Instance) Memory() hostoffload.Memory {
	mem := i.mod.Memory()
	if mem == nil {
		return nil
	}
	return instanceMemory{mem}
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}

type instanceMemory struct {
	mem api.Memory
}

func (w instanceMemory) Read(offset, length uint32) ([]byte, bool) {
	return w.mem.Read(offset, length)
}

func (w instanceMemory) Write(offset uint32, data []byte) bool {
	return w.mem.Write(offset, data)
}

func (w instanceMemory) WriteUint32Le(offset uint32, v uint32) bool {
	return w.mem.WriteUint32Le(offset, v)
}

func (w instanceMemory) Size() uint32 {
	return w.mem.Size()
}
