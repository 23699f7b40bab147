// Package errors provides structured error types for the host-offload library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes the offending resource handle where one
// applies, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTable, errors.KindOutOfBounds).
//		Handle(uint64(h)).
//		Detail("write past end of buffer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidHandle(errors.PhaseTable, uint64(h))
//	err := errors.OutOfBounds(errors.PhaseTable, uint64(h), offset, length, bufLen)
//
// All errors implement the standard error interface and support errors.Is/As.
// Kind-based checks for callers that only care about the category:
//
//	if errors.IsKind(err, errors.KindInvalidHandle) { ... }
package errors
