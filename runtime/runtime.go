package runtime

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/host-offload/engine"
	"github.com/wippyai/host-offload/errors"
	"github.com/wippyai/host-offload/host"
	"github.com/wippyai/host-offload/table"
)

// Runtime ties a resource table, a wazero engine and the host-allocator
// binding together. One Runtime means one table shared by every guest it
// loads.
type Runtime struct {
	engine *engine.Engine
	table  *table.Table
	logger *zap.Logger
}

// Option configures a Runtime at construction time.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	engineCfg *engine.Config
	tableOpts []table.Option
}

// WithLogger sets the runtime logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEngineConfig overrides the wazero engine configuration.
func WithEngineConfig(cfg engine.Config) Option {
	return func(o *options) {
		o.engineCfg = &cfg
	}
}

// WithTableOptions passes options through to the table, e.g.
// table.WithMaxBytes.
func WithTableOptions(opts ...table.Option) Option {
	return func(o *options) {
		o.tableOpts = append(o.tableOpts, opts...)
	}
}

// New creates a runtime: engine, table, and the host-allocator module
// bound between them.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	eng, err := engine.NewWithConfig(ctx, o.engineCfg)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	tbl := table.New(o.tableOpts...)
	tbl.Subscribe(tableLogObserver(o.logger))

	if err := host.Register(ctx, eng.Runtime(), tbl, o.logger); err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}

	return &Runtime{
		engine: eng,
		table:  tbl,
		logger: o.logger,
	}, nil
}

// Table returns the shared resource table.
func (r *Runtime) Table() *table.Table {
	return r.table
}

// LoadGuest compiles a guest module and checks every boundary import it
// declares against the offload interface. Guests that do not import the
// interface still load (they may only use WASI), but the gap is logged
// since it usually means a mis-built guest.
func (r *Runtime) LoadGuest(ctx context.Context, wasm []byte) (*Module, error) {
	mod, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, err
	}

	if !mod.ImportsModule(host.Namespace) {
		r.logger.Warn("guest does not import the offload interface",
			zap.String("namespace", host.Namespace))
	} else if err := checkBoundaryImports(mod); err != nil {
		return nil, err
	}

	return &Module{runtime: r, mod: mod}, nil
}

// checkBoundaryImports verifies each imported boundary function by name
// and core signature. Instantiation would fail anyway on a mismatch; the
// point is a readable error at load time.
func checkBoundaryImports(mod *engine.Module) error {
	funcs, err := InterfaceFunctions()
	if err != nil {
		return err
	}
	byName := make(map[string]FuncSig, len(funcs))
	for _, f := range funcs {
		byName[f.Name] = f
	}

	for _, def := range mod.ImportedFrom(host.Namespace) {
		_, name, _ := def.Import()
		sig, ok := byName[name]
		if !ok {
			return errors.New(errors.PhaseLoad, errors.KindNotFound).
				Detail("guest imports unknown boundary function %q", name).
				Build()
		}
		wantParams, wantResults := sig.CoreSignature()
		if !slices.Equal(def.ParamTypes(), wantParams) || !slices.Equal(def.ResultTypes(), wantResults) {
			return errors.New(errors.PhaseLoad, errors.KindInvalidData).
				Detail("guest import %q has the wrong signature", name).
				Build()
		}
	}
	return nil
}

// Close releases the engine and every guest instance, then drops all
// table state.
func (r *Runtime) Close(ctx context.Context) error {
	err := r.engine.Close(ctx)
	r.table.Reset()
	return err
}

// tableLogObserver logs buffer lifecycle transitions, replacing the
// per-call stdout tracing of the reference host.
func tableLogObserver(l *zap.Logger) table.Observer {
	return table.ObserverFunc(func(e table.Event) {
		fields := []zap.Field{
			zap.Uint64("handle", uint64(e.Handle)),
			zap.Uint64("size", e.Size),
		}
		if e.HasShape {
			fields = append(fields,
				zap.Uint32("rows", e.Shape.Rows),
				zap.Uint32("cols", e.Shape.Cols))
		}
		switch e.Type {
		case table.EventAllocated:
			l.Debug("buffer allocated", fields...)
		case table.EventFreed:
			l.Debug("buffer freed", fields...)
		case table.EventComputed:
			l.Debug("matrix product stored", fields...)
		}
	})
}
