package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/errors"
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Register instantiates the host-allocator module in r, backed by table.
// It must be called before any guest importing the interface is
// instantiated. A nil logger disables call tracing.
func Register(ctx context.Context, r wazero.Runtime, table hostoffload.Boundary, logger *zap.Logger) error {
	if table == nil {
		return errors.InvalidArgument(errors.PhaseHost, "table cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	x := handlers{table: table}
	b := r.NewHostModuleBuilder(Namespace)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			size := stack[0]
			res := x.allocateBuffer(size)
			logger.Debug("allocate-buffer", zap.Uint64("size", size), zap.Int64("result", res))
			stack[0] = uint64(res)
		}), []api.ValueType{i64}, []api.ValueType{i64}).
		Export(FuncAllocateBuffer)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			rows, cols := uint32(stack[0]), uint32(stack[1])
			res := x.allocateMatrix(rows, cols)
			logger.Debug("allocate-matrix-f32", zap.Uint32("rows", rows), zap.Uint32("cols", cols), zap.Int64("result", res))
			stack[0] = uint64(res)
		}), []api.ValueType{i32, i32}, []api.ValueType{i64}).
		Export(FuncAllocateMatrixF32)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			h := hostoffload.Handle(stack[0])
			code := x.freeBuffer(h)
			logger.Debug("free-buffer", zap.Uint64("handle", uint64(h)), zap.Stringer("code", code))
			stack[0] = uint64(uint32(code))
		}), []api.ValueType{i64}, []api.ValueType{i32}).
		Export(FuncFreeBuffer)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, m api.Module, stack []uint64) {
			ptr, length := uint32(stack[0]), uint32(stack[1])
			h := hostoffload.Handle(stack[2])
			offset := stack[3]
			code := x.writeToHost(guestMemory(m), ptr, length, h, offset)
			logger.Debug("write-to-host",
				zap.Uint32("len", length), zap.Uint64("handle", uint64(h)),
				zap.Uint64("offset", offset), zap.Stringer("code", code))
			stack[0] = uint64(uint32(code))
		}), []api.ValueType{i32, i32, i64, i64}, []api.ValueType{i32}).
		Export(FuncWriteToHost)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, m api.Module, stack []uint64) {
			h := hostoffload.Handle(stack[0])
			offset, length := stack[1], stack[2]
			dstPtr := uint32(stack[3])
			code := x.readFromHost(guestMemory(m), h, offset, length, dstPtr)
			logger.Debug("read-from-host",
				zap.Uint64("handle", uint64(h)), zap.Uint64("offset", offset),
				zap.Uint64("len", length), zap.Stringer("code", code))
			stack[0] = uint64(uint32(code))
		}), []api.ValueType{i64, i64, i64, i32}, []api.ValueType{i32}).
		Export(FuncReadFromHost)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			h := hostoffload.Handle(stack[0])
			rows, cols := uint32(stack[1]), uint32(stack[2])
			code := x.registerDims(h, rows, cols)
			logger.Debug("register-matrix-dimensions",
				zap.Uint64("handle", uint64(h)), zap.Uint32("rows", rows),
				zap.Uint32("cols", cols), zap.Stringer("code", code))
			stack[0] = uint64(uint32(code))
		}), []api.ValueType{i64, i32, i32}, []api.ValueType{i32}).
		Export(FuncRegisterMatrixDims)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, m api.Module, stack []uint64) {
			h := hostoffload.Handle(stack[0])
			outPtr := uint32(stack[1])
			code := x.getDims(guestMemory(m), h, outPtr)
			logger.Debug("get-matrix-dimensions",
				zap.Uint64("handle", uint64(h)), zap.Stringer("code", code))
			stack[0] = uint64(uint32(code))
		}), []api.ValueType{i64, i32}, []api.ValueType{i32}).
		Export(FuncGetMatrixDims)

	b.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			a, bb := hostoffload.Handle(stack[0]), hostoffload.Handle(stack[1])
			res := x.matrixMultiply(a, bb)
			logger.Debug("matrix-multiply-f32",
				zap.Uint64("a", uint64(a)), zap.Uint64("b", uint64(bb)),
				zap.Int64("result", res))
			stack[0] = uint64(res)
		}), []api.ValueType{i64, i64}, []api.ValueType{i64}).
		Export(FuncMatrixMultiplyF32)

	if _, err := b.Instantiate(ctx); err != nil {
		return errors.Registration(Namespace, "*", err)
	}
	return nil
}

// guestMemory adapts the calling module's linear memory to the root
// Memory interface. Returns nil when the guest exports no memory.
func guestMemory(m api.Module) hostoffload.Memory {
	if m == nil {
		return nil
	}
	mem := m.Memory()
	if mem == nil {
		return nil
	}
	return wazeroMemory{mem}
}

type wazeroMemory struct {
	mem api.Memory
}

func (w wazeroMemory) Read(offset, length uint32) ([]byte, bool) {
	return w.mem.Read(offset, length)
}

func (w wazeroMemory) Write(offset uint32, data []byte) bool {
	return w.mem.Write(offset, data)
}

func (w wazeroMemory) WriteUint32Le(offset uint32, v uint32) bool {
	return w.mem.WriteUint32Le(offset, v)
}

func (w wazeroMemory) Size() uint32 {
	return w.mem.Size()
}
