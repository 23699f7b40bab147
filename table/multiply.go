package table

import (
	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/errors"
	"github.com/wippyai/host-offload/table/internal/f32"
)

// Multiply computes C = A x B for the row-major float32 matrices named by
// a and b, stores C under a fresh handle with shape (a.Rows, b.Cols), and
// returns that handle. It is the only operation that allocates a handle as
// a side effect rather than by direct caller request; the caller owns the
// result and must Free it.
//
// The whole operation — reading both operands, validating shapes, and
// storing the result — runs in one critical section, so neither operand
// can be freed out from under it.
func (t *Table) Multiply(a, b hostoffload.Handle) (hostoffload.Handle, error) {
	t.mu.Lock()

	shapeA, ok := t.shapes[a]
	if !ok {
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint64(a))
	}
	bufA, ok := t.buffers[a]
	if !ok {
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint64(a))
	}
	matA, err := decodeOperand(a, shapeA, bufA)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}

	shapeB, ok := t.shapes[b]
	if !ok {
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint64(b))
	}
	bufB, ok := t.buffers[b]
	if !ok {
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint64(b))
	}
	matB, err := decodeOperand(b, shapeB, bufB)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}

	if shapeA.Cols != shapeB.Rows {
		t.mu.Unlock()
		return 0, errors.DimensionMismatch(errors.PhaseTable, shapeA.Cols, shapeB.Rows)
	}

	shapeC := hostoffload.Shape{Rows: shapeA.Rows, Cols: shapeB.Cols}
	if t.maxBytes > 0 && shapeC.ByteLen() > t.maxBytes-t.inUse {
		err := errors.Exhausted(errors.PhaseTable, shapeC.ByteLen(), t.inUse, t.maxBytes)
		t.mu.Unlock()
		return 0, err
	}

	matC := matmul(matA, int(shapeA.Rows), int(shapeA.Cols), matB, int(shapeB.Cols))

	h := t.newHandle()
	buf := f32.Encode(matC)
	t.buffers[h] = buf
	t.shapes[h] = shapeC
	t.inUse += uint64(len(buf))
	t.mu.Unlock()

	t.notify(Event{Type: EventComputed, Handle: h, Size: uint64(len(buf)), Shape: shapeC, HasShape: true})
	return h, nil
}

// matmul is the school-book product of row-major a (ar x ac) and b
// (ac x bc): c[i][j] = sum over k of a[i][k]*b[k][j].
func matmul(a []float32, ar, ac int, b []float32, bc int) []float32 {
	c := make([]float32, ar*bc)
	for i := 0; i < ar; i++ {
		for k := 0; k < ac; k++ {
			aik := a[i*ac+k]
			for j := 0; j < bc; j++ {
				c[i*bc+j] += aik * b[k*bc+j]
			}
		}
	}
	return c
}
