package client

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	hostoffload "github.com/wippyai/host-offload"
	"github.com/wippyai/host-offload/errors"
)

// Session drives a boundary from the caller side and tracks the handles
// it allocated, so partial failures and shutdown can release them. A
// Session is not safe for concurrent use; the boundary behind it is.
type Session struct {
	boundary hostoffload.Boundary
	logger   *zap.Logger
	owned    []hostoffload.Handle
}

// NewSession wraps a boundary. A nil logger means no logging.
func NewSession(b hostoffload.Boundary, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{boundary: b, logger: logger}
}

// UploadMatrix allocates a rows x cols buffer on the host, registers its
// shape, and fills it with data in row-major order.
func (s *Session) UploadMatrix(data []float32, rows, cols uint32) (hostoffload.Handle, error) {
	if uint64(len(data)) != uint64(rows)*uint64(cols) {
		return 0, errors.New(errors.PhaseGuest, errors.KindInvalidArgument).
			Detail("%d elements do not fill a %dx%d matrix", len(data), rows, cols).
			Build()
	}

	h, err := s.boundary.AllocateMatrix(rows, cols)
	if err != nil {
		return 0, err
	}

	if err := s.boundary.Write(encodeF32(data), h, 0); err != nil {
		// The freshly allocated buffer is useless without its payload.
		if ferr := s.boundary.Free(h); ferr != nil {
			s.logger.Warn("freeing failed upload",
				zap.Uint64("handle", uint64(h)), zap.Error(ferr))
		}
		return 0, err
	}

	s.owned = append(s.owned, h)
	s.logger.Debug("matrix uploaded",
		zap.Uint64("handle", uint64(h)),
		zap.Uint32("rows", rows), zap.Uint32("cols", cols))
	return h, nil
}

// Multiply asks the host for the product of a and b. The result handle
// is owned by the session and released on Close like any upload.
func (s *Session) Multiply(a, b hostoffload.Handle) (hostoffload.Handle, error) {
	h, err := s.boundary.Multiply(a, b)
	if err != nil {
		return 0, err
	}
	s.owned = append(s.owned, h)
	return h, nil
}

// ReadMatrix downloads the full buffer behind h and decodes it using the
// registered shape.
func (s *Session) ReadMatrix(h hostoffload.Handle) ([]float32, hostoffload.Shape, error) {
	shape, err := s.boundary.Shape(h)
	if err != nil {
		return nil, hostoffload.Shape{}, err
	}

	raw, err := s.boundary.Read(h, 0, shape.ByteLen())
	if err != nil {
		return nil, hostoffload.Shape{}, err
	}

	return decodeF32(raw), shape, nil
}

// Free releases a handle the session owns and forgets it.
func (s *Session) Free(h hostoffload.Handle) error {
	if err := s.boundary.Free(h); err != nil {
		return err
	}
	for i, own := range s.owned {
		if own == h {
			s.owned = append(s.owned[:i], s.owned[i+1:]...)
			break
		}
	}
	return nil
}

// Close releases every handle the session still owns, best effort. It
// returns the first failure but keeps going, so one dead handle does not
// leak the rest.
func (s *Session) Close() error {
	var first error
	for _, h := range s.owned {
		if err := s.boundary.Free(h); err != nil {
			s.logger.Warn("session cleanup failed",
				zap.Uint64("handle", uint64(h)), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	s.owned = nil
	return first
}

// encodeF32 serializes values in the host's native byte order, the
// layout the boundary computes on.
func encodeF32(values []float32) []byte {
	out := make([]byte, len(values)*hostoffload.ElemSize)
	for i, v := range values {
		binary.NativeEndian.PutUint32(out[i*hostoffload.ElemSize:], math.Float32bits(v))
	}
	return out
}

// decodeF32 assumes len(raw) is a multiple of ElemSize, which holds for
// any buffer read back against its registered shape.
func decodeF32(raw []byte) []float32 {
	out := make([]float32, len(raw)/hostoffload.ElemSize)
	for i := range out {
		out[i] = math.Float32frombits(binary.NativeEndian.Uint32(raw[i*hostoffload.ElemSize:]))
	}
	return out
}
