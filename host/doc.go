// Package host exposes a resource table to WebAssembly guests as the
// host-allocator import interface.
//
// # Boundary ABI
//
// Guests import functions from the namespace
// "wasi-custom:host-offload/host-allocator@0.1.0". All payloads cross the
// boundary by copy through guest linear memory: the guest passes
// (ptr, len) pairs into its own memory, the host validates the range
// against the current memory size and copies bytes in or out. Host
// addresses never cross the boundary in either direction.
//
// Functions returning a handle use i64: a positive value is the handle, a
// negative value is the negated error code. Functions returning unit use
// i32: zero is success, non-zero is the error code. Error codes are
// stable; see the Code constants.
//
// A guest-supplied pointer range outside linear memory is reported as
// CodeMemoryFault to the guest, never raised as a host panic: the guest
// is untrusted and a bad pointer must not take the host down.
//
// Handlers are written against the root Memory interface so the ABI logic
// is unit-testable without instantiating a WASM module.
package host
