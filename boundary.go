package hostoffload

// Handle is an opaque reference to a host-owned buffer.
// Handles are strictly positive and monotonically increasing; a handle is
// never reused after the buffer it names has been freed. Handle 0 is
// reserved and always invalid.
type Handle uint64

// Shape describes how a buffer's bytes are interpreted as a dense
// row-major float32 matrix.
type Shape struct {
	Rows uint32
	Cols uint32
}

// ElemSize is the byte size of one matrix element (IEEE-754 float32).
const ElemSize = 4

// ByteLen returns the buffer length a matrix of this shape occupies.
func (s Shape) ByteLen() uint64 {
	return uint64(s.Rows) * uint64(s.Cols) * ElemSize
}

// Elems returns the element count of the shape.
func (s Shape) Elems() uint64 {
	return uint64(s.Rows) * uint64(s.Cols)
}

// Boundary is the transport-independent offload contract a caller
// (in-process or across a WASM isolation boundary) uses to delegate
// buffer ownership and matrix compute to the host.
//
// All byte payloads cross by copy: Write copies in, Read copies out, and
// a returned slice is a snapshot that later writes never alias.
type Boundary interface {
	// Allocate reserves a fresh handle backed by size zeroed bytes.
	// size must be non-zero.
	Allocate(size uint64) (Handle, error)

	// AllocateMatrix reserves a fresh handle backed by rows*cols float32
	// zeroed elements and registers the shape in the same step.
	AllocateMatrix(rows, cols uint32) (Handle, error)

	// Free releases the buffer and any registered shape for h together.
	Free(h Handle) error

	// Write copies data into h's buffer starting at offset. On a bounds
	// failure nothing is written.
	Write(data []byte, h Handle, offset uint64) error

	// Read returns a copy of length bytes of h's buffer starting at offset.
	Read(h Handle, offset, length uint64) ([]byte, error)

	// RegisterShape attaches (rows, cols) to h, replacing any prior shape.
	// Consistency with the buffer's byte length is checked at multiply
	// time, not here: registration may precede the writes that fill the
	// buffer.
	RegisterShape(h Handle, rows, cols uint32) error

	// Shape returns the registered shape for h.
	Shape(h Handle) (Shape, error)

	// Multiply computes the product of the two matrices named by a and b
	// and stores it under a fresh handle with shape (a.Rows, b.Cols).
	Multiply(a, b Handle) (Handle, error)
}

// Memory is guest linear memory as seen from host functions. Offsets are
// guest addresses; implementations report range faults via ok=false and
// never panic on a bad range.
type Memory interface {
	// Read returns a view of length bytes at offset, or false if the
	// range is out of bounds.
	Read(offset, length uint32) ([]byte, bool)

	// Write copies data to offset, or returns false if the range is out
	// of bounds.
	Write(offset uint32, data []byte) bool

	// WriteUint32Le writes a little-endian uint32 at offset.
	WriteUint32Le(offset uint32, v uint32) bool

	// Size returns the current memory size in bytes.
	Size() uint32
}
