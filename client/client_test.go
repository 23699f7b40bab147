package client

import (
	"testing"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/errors"
	"github.com/wippyai/host-offload/table"
)

func TestUploadMatrix(t *testing.T) {
	tbl := table.New()
	s := NewSession(tbl, nil)
	defer s.Close()

	h, err := s.UploadMatrix([]float32{1, 2, 3, 4}, 2, 2)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	shape, err := tbl.Shape(h)
	if err != nil {
		t.Fatalf("shape lookup failed: %v", err)
	}
	if shape.Rows != 2 || shape.Cols != 2 {
		t.Fatalf("unexpected shape %dx%d", shape.Rows, shape.Cols)
	}

	got, _, err := s.ReadMatrix(h)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUploadMatrix_WrongElementCount(t *testing.T) {
	tbl := table.New()
	s := NewSession(tbl, nil)
	defer s.Close()

	if _, err := s.UploadMatrix([]float32{1, 2, 3}, 2, 2); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Fatalf("expected invalid_argument, got %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatal("rejected upload left a buffer behind")
	}
}

func TestUploadMatrix_FreesOnWriteFailure(t *testing.T) {
	b := &failingWrites{Table: table.New()}
	s := NewSession(b, nil)
	defer s.Close()

	if _, err := s.UploadMatrix([]float32{1, 2}, 1, 2); err == nil {
		t.Fatal("expected write failure to surface")
	}
	if b.Len() != 0 {
		t.Fatal("failed upload leaked its buffer")
	}
}

type failingWrites struct {
	*table.Table
}

func (f *failingWrites) Write(data []byte, h hostoffload.Handle, offset uint64) error {
	return errors.InvalidArgument(errors.PhaseTable, "injected write failure")
}

func TestSessionMultiply(t *testing.T) {
	tbl := table.New()
	s := NewSession(tbl, nil)
	defer s.Close()

	a, err := s.UploadMatrix([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	if err != nil {
		t.Fatalf("upload a: %v", err)
	}
	b, err := s.UploadMatrix([]float32{7, 8, 9, 10, 11, 12}, 3, 2)
	if err != nil {
		t.Fatalf("upload b: %v", err)
	}

	c, err := s.Multiply(a, b)
	if err != nil {
		t.Fatalf("multiply failed: %v", err)
	}

	got, shape, err := s.ReadMatrix(c)
	if err != nil {
		t.Fatalf("read product: %v", err)
	}
	if shape.Rows != 2 || shape.Cols != 2 {
		t.Fatalf("product shape %dx%d, want 2x2", shape.Rows, shape.Cols)
	}
	want := []float32{58, 64, 139, 154}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("product[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSessionFree(t *testing.T) {
	tbl := table.New()
	s := NewSession(tbl, nil)

	h, err := s.UploadMatrix([]float32{1}, 1, 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := s.Free(h); err != nil {
		t.Fatalf("free: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatal("free did not release the buffer")
	}

	// Close must not try to free it again.
	if err := s.Close(); err != nil {
		t.Fatalf("close after free: %v", err)
	}
}

func TestSessionClose(t *testing.T) {
	tbl := table.New()
	s := NewSession(tbl, nil)

	if _, err := s.UploadMatrix([]float32{1, 2}, 1, 2); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := s.UploadMatrix([]float32{3, 4}, 2, 1); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("close left %d buffers live", tbl.Len())
	}
}

func TestSessionClose_ReportsDeadHandle(t *testing.T) {
	tbl := table.New()
	s := NewSession(tbl, nil)

	h, err := s.UploadMatrix([]float32{1}, 1, 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	h2, err := s.UploadMatrix([]float32{2}, 1, 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	// Freed behind the session's back.
	if err := tbl.Free(h); err != nil {
		t.Fatalf("direct free: %v", err)
	}

	if err := s.Close(); !errors.IsKind(err, errors.KindInvalidHandle) {
		t.Fatalf("expected invalid_handle from close, got %v", err)
	}
	// The other handle was still released.
	if _, err := tbl.Read(h2, 0, 1); !errors.IsKind(err, errors.KindInvalidHandle) {
		t.Fatal("close skipped remaining handles after a failure")
	}
}

func TestRunMatrixExample(t *testing.T) {
	tbl := table.New()

	ex, err := RunMatrixExample(tbl, nil)
	if err != nil {
		t.Fatalf("example failed: %v", err)
	}

	if ex.Shape.Rows != 2 || ex.Shape.Cols != 2 {
		t.Fatalf("product shape %dx%d, want 2x2", ex.Shape.Rows, ex.Shape.Cols)
	}
	want := []float32{58, 64, 139, 154}
	for i := range want {
		if ex.Product[i] != want[i] {
			t.Fatalf("product[%d] = %v, want %v", i, ex.Product[i], want[i])
		}
	}
	if tbl.Len() != 0 {
		t.Fatalf("example leaked %d buffers", tbl.Len())
	}
}
