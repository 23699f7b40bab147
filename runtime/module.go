package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/host-offload/engine"
	"github.com/wippyai/host-offload/errors"
)

// Module is a compiled guest bound to a runtime's table.
type Module struct {
	runtime *Runtime
	mod     *engine.Module
}

// ExportNames returns the guest's exported function names.
func (m *Module) ExportNames() []string {
	return m.mod.ExportNames()
}

// Instantiate creates a running instance of the guest.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	return m.InstantiateWithConfig(ctx, nil)
}

// InstantiateWithConfig creates an instance with custom configuration.
func (m *Module) InstantiateWithConfig(ctx context.Context, cfg *engine.InstanceConfig) (*Instance, error) {
	inst, err := m.mod.Instantiate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Instance{runtime: m.runtime, inst: inst}, nil
}

// Close releases the compiled guest.
func (m *Module) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}

// Instance is a running guest.
type Instance struct {
	runtime *Runtime
	inst    *engine.Instance
}

// Run invokes a parameterless guest export by name. Guest convention: an
// export either returns nothing, or returns a single i32 where zero is
// success and anything else is a guest-chosen failure code.
func (i *Instance) Run(ctx context.Context, name string) error {
	i.runtime.logger.Info("running guest export", zap.String("func", name))

	results, err := i.inst.Call(ctx, name)
	if err != nil {
		return err
	}
	if len(results) > 0 && uint32(results[0]) != 0 {
		return errors.New(errors.PhaseGuest, errors.KindInvalidData).
			Detail("guest export %q returned failure code %d", name, uint32(results[0])).
			Build()
	}

	i.runtime.logger.Info("guest export completed", zap.String("func", name))
	return nil
}

// Call invokes an exported function with raw stack values.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	return i.inst.Call(ctx, name, params...)
}

// Close releases the instance. Table buffers the guest allocated remain
// live; leaked ones show up in Runtime.Table().Len().
func (i *Instance) Close(ctx context.Context) error {
	return i.inst.Close(ctx)
}
