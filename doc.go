// Package hostoffload lets an untrusted WebAssembly guest delegate buffer
// ownership and matrix compute to a trusted host across a hard isolation
// boundary, using only opaque integer handles. No pointers cross the
// boundary: the guest never sees host addresses, and the host validates
// every guest-supplied offset before touching memory.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	hostoffload/         Root package with Handle, Shape, Boundary and Memory
//	├── runtime/         High-level API for loading and running guest modules
//	├── engine/          Low-level wazero integration
//	├── host/            Guest-facing host module (the boundary ABI)
//	├── table/           Resource table: buffers, shapes, matrix multiply
//	├── client/          Caller-side offload session and reference driver
//	├── errors/          Structured error types
//	└── cmd/offload-run/ CLI for running guests and inspecting the table
//
// # Offload Protocol
//
// A caller offloads a multiply with the sequence:
//
//	a, _ := tbl.AllocateMatrix(2, 3)
//	tbl.Write(aBytes, a, 0)
//	b, _ := tbl.AllocateMatrix(3, 2)
//	tbl.Write(bBytes, b, 0)
//	c, _ := tbl.Multiply(a, b)
//	shape, _ := tbl.Shape(c)
//	out, _ := tbl.Read(c, 0, shape.ByteLen())
//	tbl.Free(a); tbl.Free(b); tbl.Free(c)
//
// Every call is synchronous and completes before the next; the host never
// calls back into the guest. Callers must free every handle they allocate,
// including on error paths — the table has no garbage collection.
package hostoffload
