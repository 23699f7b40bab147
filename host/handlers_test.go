package host

import (
	"bytes"
	"encoding/binary"
	"testing"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/table"
)

// fakeMemory is an in-process stand-in for guest linear memory.
type fakeMemory struct {
	data []byte
}

func newFakeMemory(size uint32) *fakeMemory {
	return &fakeMemory{data: make([]byte, size)}
}

func (m *fakeMemory) Read(offset, length uint32) ([]byte, bool) {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset : offset+length], true
}

func (m *fakeMemory) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return false
	}
	copy(m.data[offset:], data)
	return true
}

func (m *fakeMemory) WriteUint32Le(offset uint32, v uint32) bool {
	if uint64(offset)+4 > uint64(len(m.data)) {
		return false
	}
	binary.LittleEndian.PutUint32(m.data[offset:], v)
	return true
}

func (m *fakeMemory) Size() uint32 {
	return uint32(len(m.data))
}

func newHandlers() (handlers, *table.Table) {
	tbl := table.New()
	return handlers{table: tbl}, tbl
}

func TestAllocateBuffer_WireEncoding(t *testing.T) {
	x, _ := newHandlers()

	res := x.allocateBuffer(16)
	if res <= 0 {
		t.Fatalf("expected positive handle, got %d", res)
	}

	res = x.allocateBuffer(0)
	if res != -int64(CodeInvalidArgument) {
		t.Fatalf("expected -%d for zero size, got %d", CodeInvalidArgument, res)
	}
}

func TestAllocateMatrix_WireEncoding(t *testing.T) {
	x, tbl := newHandlers()

	res := x.allocateMatrix(2, 3)
	if res <= 0 {
		t.Fatalf("expected positive handle, got %d", res)
	}
	shape, err := tbl.Shape(hostoffload.Handle(res))
	if err != nil || shape.Rows != 2 || shape.Cols != 3 {
		t.Fatalf("shape not registered: %v %v", shape, err)
	}

	if res := x.allocateMatrix(0, 3); res != -int64(CodeInvalidArgument) {
		t.Fatalf("expected -%d, got %d", CodeInvalidArgument, res)
	}
}

func TestFreeBuffer_Codes(t *testing.T) {
	x, _ := newHandlers()

	h := hostoffload.Handle(x.allocateBuffer(8))
	if code := x.freeBuffer(h); code != CodeOK {
		t.Fatalf("expected ok, got %v", code)
	}
	if code := x.freeBuffer(h); code != CodeInvalidHandle {
		t.Fatalf("expected invalid-handle on double free, got %v", code)
	}
}

func TestWriteToHost(t *testing.T) {
	x, tbl := newHandlers()
	mem := newFakeMemory(1024)

	payload := []byte{1, 2, 3, 4}
	copy(mem.data[100:], payload)

	h := hostoffload.Handle(x.allocateBuffer(8))
	if code := x.writeToHost(mem, 100, 4, h, 2); code != CodeOK {
		t.Fatalf("expected ok, got %v", code)
	}

	got, _ := tbl.Read(h, 2, 4)
	if !bytes.Equal(got, payload) {
		t.Fatalf("expected %x, got %x", payload, got)
	}
}

func TestWriteToHost_GuestRangeFault(t *testing.T) {
	x, _ := newHandlers()
	mem := newFakeMemory(64)

	h := hostoffload.Handle(x.allocateBuffer(8))
	if code := x.writeToHost(mem, 60, 8, h, 0); code != CodeMemoryFault {
		t.Fatalf("expected memory-fault, got %v", code)
	}
	if code := x.writeToHost(nil, 0, 4, h, 0); code != CodeMemoryFault {
		t.Fatalf("expected memory-fault for nil memory, got %v", code)
	}
}

func TestWriteToHost_TableBounds(t *testing.T) {
	x, _ := newHandlers()
	mem := newFakeMemory(64)

	h := hostoffload.Handle(x.allocateBuffer(4))
	if code := x.writeToHost(mem, 0, 8, h, 0); code != CodeOutOfBounds {
		t.Fatalf("expected out-of-bounds, got %v", code)
	}
	if code := x.writeToHost(mem, 0, 4, 999, 0); code != CodeInvalidHandle {
		t.Fatalf("expected invalid-handle, got %v", code)
	}
}

func TestReadFromHost(t *testing.T) {
	x, tbl := newHandlers()
	mem := newFakeMemory(256)

	h := hostoffload.Handle(x.allocateBuffer(8))
	tbl.Write([]byte{9, 8, 7, 6}, h, 4)

	if code := x.readFromHost(mem, h, 4, 4, 32); code != CodeOK {
		t.Fatalf("expected ok, got %v", code)
	}
	if !bytes.Equal(mem.data[32:36], []byte{9, 8, 7, 6}) {
		t.Fatalf("guest memory not written: %x", mem.data[32:36])
	}
}

func TestReadFromHost_Faults(t *testing.T) {
	x, _ := newHandlers()
	mem := newFakeMemory(64)

	h := hostoffload.Handle(x.allocateBuffer(16))

	// Destination range outside guest memory.
	if code := x.readFromHost(mem, h, 0, 16, 56); code != CodeMemoryFault {
		t.Fatalf("expected memory-fault, got %v", code)
	}
	// Length that cannot exist in a 32-bit address space.
	if code := x.readFromHost(mem, h, 0, 1<<33, 0); code != CodeMemoryFault {
		t.Fatalf("expected memory-fault for huge length, got %v", code)
	}
	// Source range outside the buffer.
	if code := x.readFromHost(mem, h, 8, 16, 0); code != CodeOutOfBounds {
		t.Fatalf("expected out-of-bounds, got %v", code)
	}
	// Dead handle.
	if code := x.readFromHost(mem, 999, 0, 4, 0); code != CodeInvalidHandle {
		t.Fatalf("expected invalid-handle, got %v", code)
	}

	// Faulting destination never partially reads: the buffer is intact
	// and guest memory untouched.
	for _, b := range mem.data {
		if b != 0 {
			t.Fatal("guest memory mutated by failed read")
		}
	}
}

func TestRegisterAndGetDims(t *testing.T) {
	x, _ := newHandlers()
	mem := newFakeMemory(64)

	h := hostoffload.Handle(x.allocateBuffer(16))
	if code := x.registerDims(h, 2, 2); code != CodeOK {
		t.Fatalf("expected ok, got %v", code)
	}

	if code := x.getDims(mem, h, 8); code != CodeOK {
		t.Fatalf("expected ok, got %v", code)
	}
	rows := binary.LittleEndian.Uint32(mem.data[8:])
	cols := binary.LittleEndian.Uint32(mem.data[12:])
	if rows != 2 || cols != 2 {
		t.Fatalf("expected 2x2, got %dx%d", rows, cols)
	}

	// Out pointer straddling the end of memory.
	if code := x.getDims(mem, h, 60); code != CodeMemoryFault {
		t.Fatalf("expected memory-fault, got %v", code)
	}
	// No shape registered.
	h2 := hostoffload.Handle(x.allocateBuffer(4))
	if code := x.getDims(mem, h2, 0); code != CodeInvalidHandle {
		t.Fatalf("expected invalid-handle, got %v", code)
	}
}

func TestMatrixMultiply_WireEncoding(t *testing.T) {
	x, tbl := newHandlers()

	a := hostoffload.Handle(x.allocateMatrix(2, 3))
	b := hostoffload.Handle(x.allocateMatrix(3, 2))

	res := x.matrixMultiply(a, b)
	if res <= 0 {
		t.Fatalf("expected handle, got %d", res)
	}
	shape, err := tbl.Shape(hostoffload.Handle(res))
	if err != nil || shape.Rows != 2 || shape.Cols != 2 {
		t.Fatalf("result shape wrong: %v %v", shape, err)
	}

	// Mismatched inner dimensions.
	c := hostoffload.Handle(x.allocateMatrix(2, 3))
	if res := x.matrixMultiply(a, c); res != -int64(CodeDimensionMismatch) {
		t.Fatalf("expected -%d, got %d", CodeDimensionMismatch, res)
	}
	if res := x.matrixMultiply(999, b); res != -int64(CodeInvalidHandle) {
		t.Fatalf("expected -%d, got %d", CodeInvalidHandle, res)
	}
}

func TestCodeMapping(t *testing.T) {
	if codeOf(nil) != CodeOK {
		t.Fatal("nil should map to ok")
	}
	if code := codeOf(bytes.ErrTooLarge); code != CodeInternal {
		t.Fatalf("unknown error should map to internal, got %v", code)
	}
}

func TestCodeString(t *testing.T) {
	codes := map[Code]string{
		CodeOK:                "ok",
		CodeInvalidHandle:     "invalid-handle",
		CodeOutOfBounds:       "out-of-bounds",
		CodeInvalidArgument:   "invalid-argument",
		CodeShapeMismatch:     "shape-mismatch",
		CodeDimensionMismatch: "dimension-mismatch",
		CodeMemoryFault:       "memory-fault",
		CodeExhausted:         "resource-exhausted",
		CodeInternal:          "internal",
	}
	for code, want := range codes {
		if code.String() != want {
			t.Errorf("code %d: expected %q, got %q", int32(code), want, code.String())
		}
	}
}
