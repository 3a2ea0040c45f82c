// Package cpu implements the pure-Go compute backend used for export.
//
// Matrix kernels (MatMul, Conv2D via im2col) are delegated to gonum;
// everything else is straightforward element-wise or index arithmetic.
// The backend is stateless and safe to share.
package cpu

import (
	"fmt"

	"github.com/5usu/depthgo/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend struct{}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// mustRaw allocates a RawTensor or panics. Shape validity is
// established by the callers before allocation.
func mustRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	return raw
}

func requireFloat32(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			panic(fmt.Sprintf("%s: unsupported dtype %s (only float32 supported)", op, t.DType()))
		}
	}
}
