package client

import (
	"go.uber.org/zap"

	hostoffload "github.com/wippyai/host-offload"
)

// MatrixExample is the result of one demo round trip through a boundary.
type MatrixExample struct {
	A, B, Product []float32
	Shape         hostoffload.Shape
}

// RunMatrixExample uploads two small matrices, multiplies them on the
// host, and reads the product back. It exercises the full offload path
// without needing a compiled guest.
//
// A is 2x3, B is 3x2, so the product is 2x2:
//
//	| 1 2 3 |   |  7  8 |   |  58  64 |
//	| 4 5 6 | x |  9 10 | = | 139 154 |
//	            | 11 12 |
func RunMatrixExample(b hostoffload.Boundary, logger *zap.Logger) (*MatrixExample, error) {
	s := NewSession(b, logger)
	defer s.Close()

	a := []float32{1, 2, 3, 4, 5, 6}
	bm := []float32{7, 8, 9, 10, 11, 12}

	ha, err := s.UploadMatrix(a, 2, 3)
	if err != nil {
		return nil, err
	}
	hb, err := s.UploadMatrix(bm, 3, 2)
	if err != nil {
		return nil, err
	}

	hc, err := s.Multiply(ha, hb)
	if err != nil {
		return nil, err
	}

	product, shape, err := s.ReadMatrix(hc)
	if err != nil {
		return nil, err
	}

	return &MatrixExample{A: a, B: bm, Product: product, Shape: shape}, nil
}
