package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseTable   Phase = "table"   // resource table operations
	PhaseCodec   Phase = "codec"   // byte <-> float32 conversion
	PhaseHost    Phase = "host"    // guest-facing host functions
	PhaseGuest   Phase = "guest"   // caller-side offload driver
	PhaseLoad    Phase = "load"    // guest module loading
	PhaseRuntime Phase = "runtime" // runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle     Kind = "invalid_handle"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidArgument   Kind = "invalid_argument"
	KindShapeMismatch     Kind = "shape_mismatch"
	KindDimensionMismatch Kind = "dimension_mismatch"
	KindMemoryFault       Kind = "memory_fault"
	KindExhausted         Kind = "resource_exhausted"
	KindNotFound          Kind = "not_found"
	KindInstantiation     Kind = "instantiation"
	KindRegistration      Kind = "registration"
	KindInvalidData       Kind = "invalid_data"
)

// Error is the structured error type used throughout the library.
// Handle is the offending resource handle, 0 when not applicable.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Handle uint64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle != 0 {
		fmt.Fprintf(&b, " handle=%d", e.Handle)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Two Errors match on (Phase, Kind); a target with an empty Phase
// matches any phase, so sentinel comparisons can check kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Handle sets the offending resource handle
func (b *Builder) Handle(h uint64) *Builder {
	b.err.Handle = h
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// KindOf returns the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return "", false
		}
		err = u.Unwrap()
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

// Convenience constructors for common error patterns

// InvalidHandle creates an invalid-handle error: the handle has no live
// buffer (never allocated, already freed, or from another table).
func InvalidHandle(phase Phase, handle uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Handle: handle,
		Detail: "no live buffer for handle",
	}
}

// OutOfBounds creates an out-of-bounds error for a byte-range operation.
func OutOfBounds(phase Phase, handle, offset, length, bufLen uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Handle: handle,
		Detail: fmt.Sprintf("range [%d, %d) exceeds buffer length %d", offset, offset+length, bufLen),
	}
}

// InvalidArgument creates an invalid-argument error
func InvalidArgument(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Detail: detail,
	}
}

// ShapeMismatch creates an error for a registered shape whose element
// count disagrees with the underlying buffer's byte length.
func ShapeMismatch(phase Phase, handle uint64, rows, cols uint32, bufLen uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindShapeMismatch,
		Handle: handle,
		Detail: fmt.Sprintf("shape %dx%d needs %d bytes, buffer has %d", rows, cols, uint64(rows)*uint64(cols)*4, bufLen),
	}
}

// DimensionMismatch creates an error for incompatible multiply operands.
func DimensionMismatch(phase Phase, aCols, bRows uint32) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindDimensionMismatch,
		Detail: fmt.Sprintf("inner dimensions disagree: a.cols=%d, b.rows=%d",
			aCols, bRows),
	}
}

// MemoryFault creates an error for a guest pointer range outside guest
// linear memory.
func MemoryFault(phase Phase, ptr, length, memSize uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMemoryFault,
		Detail: fmt.Sprintf("guest range [%d, %d) exceeds memory size %d", ptr, uint64(ptr)+uint64(length), memSize),
	}
}

// Exhausted creates a resource-exhausted error for the optional table
// capacity ceiling.
func Exhausted(phase Phase, requested, inUse, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("allocating %d bytes would exceed limit %d (%d in use)", requested, limit, inUse),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// Registration creates a host function registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
