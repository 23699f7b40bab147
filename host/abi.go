package host

import (
	"github.com/wippyai/host-offload/errors"
)

// Namespace is the import module name guests bind against. The name and
// version follow the host-offload WIT world.
const Namespace = "wasi-custom:host-offload/host-allocator@0.1.0"

// Guest-visible function names.
const (
	FuncAllocateBuffer     = "allocate-buffer"
	FuncAllocateMatrixF32  = "allocate-matrix-f32"
	FuncFreeBuffer         = "free-buffer"
	FuncWriteToHost        = "write-to-host"
	FuncReadFromHost       = "read-from-host"
	FuncRegisterMatrixDims = "register-matrix-dimensions"
	FuncGetMatrixDims      = "get-matrix-dimensions"
	FuncMatrixMultiplyF32  = "matrix-multiply-f32"
)

// Code is a stable error code crossing the boundary. Zero is success.
type Code int32

const (
	CodeOK                Code = 0
	CodeInvalidHandle     Code = 1
	CodeOutOfBounds       Code = 2
	CodeInvalidArgument   Code = 3
	CodeShapeMismatch     Code = 4
	CodeDimensionMismatch Code = 5
	CodeMemoryFault       Code = 6
	CodeExhausted         Code = 7
	CodeInternal          Code = 8
)

// String returns the code's wire-stable name.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidHandle:
		return "invalid-handle"
	case CodeOutOfBounds:
		return "out-of-bounds"
	case CodeInvalidArgument:
		return "invalid-argument"
	case CodeShapeMismatch:
		return "shape-mismatch"
	case CodeDimensionMismatch:
		return "dimension-mismatch"
	case CodeMemoryFault:
		return "memory-fault"
	case CodeExhausted:
		return "resource-exhausted"
	default:
		return "internal"
	}
}

// codeOf maps a table or host error to its boundary code.
func codeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	kind, ok := errors.KindOf(err)
	if !ok {
		return CodeInternal
	}
	switch kind {
	case errors.KindInvalidHandle:
		return CodeInvalidHandle
	case errors.KindOutOfBounds:
		return CodeOutOfBounds
	case errors.KindInvalidArgument:
		return CodeInvalidArgument
	case errors.KindShapeMismatch:
		return CodeShapeMismatch
	case errors.KindDimensionMismatch:
		return CodeDimensionMismatch
	case errors.KindMemoryFault:
		return CodeMemoryFault
	case errors.KindExhausted:
		return CodeExhausted
	default:
		return CodeInternal
	}
}
