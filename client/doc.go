// Package client is the caller-side counterpart to the host boundary.
//
// Where package host exposes the table to WASM guests, client drives the
// same Boundary contract from Go: a Session uploads matrices, requests
// products, reads results back, and releases every handle it created
// when closed. It works identically against a local table and against
// any other Boundary implementation.
package client
