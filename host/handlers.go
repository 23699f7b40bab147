package host

import (
	"math"

	hostoffload "github.com/wippyai/host-offload"
)

// handlers binds a Boundary implementation to the wire-level ABI. Each
// method mirrors one guest-visible function and speaks in codes rather
// than Go errors; memory-touching methods take the guest's linear memory.
type handlers struct {
	table hostoffload.Boundary
}

// handleResult packs a (handle, error) pair into the i64 wire encoding:
// positive handle on success, negated code on failure.
func handleResult(h hostoffload.Handle, err error) int64 {
	if err != nil {
		return -int64(codeOf(err))
	}
	return int64(h)
}

func (x handlers) allocateBuffer(size uint64) int64 {
	h, err := x.table.Allocate(size)
	return handleResult(h, err)
}

func (x handlers) allocateMatrix(rows, cols uint32) int64 {
	h, err := x.table.AllocateMatrix(rows, cols)
	return handleResult(h, err)
}

func (x handlers) freeBuffer(h hostoffload.Handle) Code {
	return codeOf(x.table.Free(h))
}

// writeToHost copies (ptr, length) out of guest memory into the target
// buffer at offset. The guest range is validated before the table is
// touched, so a faulting guest cannot partially mutate a buffer.
func (x handlers) writeToHost(mem hostoffload.Memory, ptr, length uint32, h hostoffload.Handle, offset uint64) Code {
	data, ok := readGuest(mem, ptr, length)
	if !ok {
		return CodeMemoryFault
	}
	return codeOf(x.table.Write(data, h, offset))
}

// readFromHost copies length bytes of h's buffer at offset into guest
// memory at dstPtr. A length that cannot fit in a 32-bit guest address
// space is a memory fault by definition.
func (x handlers) readFromHost(mem hostoffload.Memory, h hostoffload.Handle, offset, length uint64, dstPtr uint32) Code {
	if length > math.MaxUint32 {
		return CodeMemoryFault
	}
	// Probe the guest range first: on a bad destination nothing is read.
	if mem == nil || !memRangeOK(mem, dstPtr, uint32(length)) {
		return CodeMemoryFault
	}
	data, err := x.table.Read(h, offset, length)
	if err != nil {
		return codeOf(err)
	}
	if !mem.Write(dstPtr, data) {
		return CodeMemoryFault
	}
	return CodeOK
}

func (x handlers) registerDims(h hostoffload.Handle, rows, cols uint32) Code {
	return codeOf(x.table.RegisterShape(h, rows, cols))
}

// getDims writes the registered shape as two little-endian u32 values
// (rows then cols) at outPtr in guest memory.
func (x handlers) getDims(mem hostoffload.Memory, h hostoffload.Handle, outPtr uint32) Code {
	if mem == nil || !memRangeOK(mem, outPtr, 8) {
		return CodeMemoryFault
	}
	shape, err := x.table.Shape(h)
	if err != nil {
		return codeOf(err)
	}
	if !mem.WriteUint32Le(outPtr, shape.Rows) || !mem.WriteUint32Le(outPtr+4, shape.Cols) {
		return CodeMemoryFault
	}
	return CodeOK
}

func (x handlers) matrixMultiply(a, b hostoffload.Handle) int64 {
	h, err := x.table.Multiply(a, b)
	return handleResult(h, err)
}

// readGuest copies (ptr, length) out of guest memory. The copy matters:
// the returned view from Memory.Read aliases guest memory, and the table
// must never retain guest-owned bytes.
func readGuest(mem hostoffload.Memory, ptr, length uint32) ([]byte, bool) {
	if mem == nil {
		return nil, false
	}
	view, ok := mem.Read(ptr, length)
	if !ok {
		return nil, false
	}
	data := make([]byte, len(view))
	copy(data, view)
	return data, true
}

// memRangeOK reports whether [ptr, ptr+length) lies inside guest memory.
func memRangeOK(mem hostoffload.Memory, ptr, length uint32) bool {
	size := uint64(mem.Size())
	return uint64(ptr)+uint64(length) <= size
}
