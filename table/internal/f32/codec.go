// Package f32 converts between raw byte buffers and float32 slices.
//
// This is the one place the library reinterprets untyped bytes as typed
// data, so the conversion is explicit and checked rather than a pointer
// cast: Decode rejects any buffer whose length is not a multiple of the
// element size. Go imposes no alignment requirement on this conversion,
// so the platform alignment check is always satisfied.
//
// Element format is 4-byte IEEE-754 float32 in the host's native byte
// order, matching what crosses the offload boundary.
package f32

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/host-offload/errors"
)

// ElemSize is the byte size of one element.
const ElemSize = 4

// Decode interprets buf as a float32 slice. The input is copied, never
// aliased. Fails with invalid_data if len(buf) is not a multiple of 4.
func Decode(buf []byte) ([]float32, error) {
	if len(buf)%ElemSize != 0 {
		return nil, errors.New(errors.PhaseCodec, errors.KindInvalidData).
			Detail("buffer length %d is not a multiple of %d", len(buf), ElemSize).
			Build()
	}
	out := make([]float32, len(buf)/ElemSize)
	for i := range out {
		bits := binary.NativeEndian.Uint32(buf[i*ElemSize:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// Encode returns the byte representation of data in native byte order.
func Encode(data []float32) []byte {
	buf := make([]byte, len(data)*ElemSize)
	for i, v := range data {
		binary.NativeEndian.PutUint32(buf[i*ElemSize:], math.Float32bits(v))
	}
	return buf
}
