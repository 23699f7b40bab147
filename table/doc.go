// Package table implements the host-side resource table: the owning store
// for all buffers a guest has delegated to the host, keyed by opaque
// handles, plus the matrix-multiply compute primitive layered on top.
//
// # Handle Table
//
// Handles are strictly positive, monotonically increasing, and never
// reused after Free. The counter wrapping around would allow handle
// aliasing, so exhaustion panics rather than returning an error.
//
//	tbl := table.New()
//
//	h, err := tbl.Allocate(64)          // 64 zeroed bytes
//	m, err := tbl.AllocateMatrix(2, 3)  // 24 zeroed bytes + shape in one step
//
// # Ownership
//
// The table exclusively owns every buffer. Callers hold only handles and
// move bytes with explicit copies (Write in, Read out); a slice returned
// by Read is a snapshot that later writes never change.
//
// # Shapes
//
// A shape (rows, cols) may be registered for any live buffer. Consistency
// between rows*cols*4 and the buffer's byte length is checked lazily when
// Multiply consumes the shape, because registration may precede the writes
// that fill the buffer. Free removes the buffer and its shape together.
//
// # Concurrency
//
// One mutex guards the buffer map, the shape map and the handle counter as
// a unit. Every operation, Multiply included, is a whole-operation
// critical section, so concurrent callers observe a linearizable table and
// Multiply can never see an operand freed mid-computation.
//
// # Observers
//
// Register observers to track buffer lifecycle events:
//
//	tbl.Subscribe(obs) // EventAllocated, EventFreed, EventComputed
//
// Buffers are not garbage collected. Callers must Free every handle they
// allocate, including on error paths.
package table
