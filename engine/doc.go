// Package engine wraps the wazero runtime for the host-offload library.
//
// It owns compilation and instantiation of guest modules and exposes
// guest linear memory through the root Memory interface. Guests compiled
// against WASI preview1 get wazero's stock wasi_snapshot_preview1 module;
// the offload interface itself is registered separately by the host
// package.
//
// The engine performs no I/O of its own and holds no table state: it is
// the mechanical layer between raw wasm bytes and callable instances.
package engine
