package f32

import (
	"math"
	"testing"

	"github.com/wippyai/host-offload/errors"
)

func TestRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 3.5, -2.25, float32(math.Inf(1)), 1e-38}

	buf := Encode(in)
	if len(buf) != len(in)*ElemSize {
		t.Fatalf("expected %d bytes, got %d", len(in)*ElemSize, len(buf))
	}

	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d elements, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("element %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}

func TestDecode_RejectsRaggedLength(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7, 9} {
		_, err := Decode(make([]byte, n))
		if err == nil {
			t.Fatalf("expected error for length %d", n)
		}
		if !errors.IsKind(err, errors.KindInvalidData) {
			t.Fatalf("expected invalid_data for length %d, got %v", n, err)
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	out, err := Decode(nil)
	if err != nil {
		t.Fatalf("decode of empty buffer failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected 0 elements, got %d", len(out))
	}
}

func TestDecode_Snapshot(t *testing.T) {
	buf := Encode([]float32{1, 2})
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// Mutating the source bytes must not change the decoded values.
	for i := range buf {
		buf[i] = 0xFF
	}
	if out[0] != 1 || out[1] != 2 {
		t.Fatalf("decoded values alias the input buffer: %v", out)
	}
}

func TestDecode_NaNPreserved(t *testing.T) {
	buf := Encode([]float32{float32(math.NaN())})
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !math.IsNaN(float64(out[0])) {
		t.Fatalf("expected NaN, got %v", out[0])
	}
}
