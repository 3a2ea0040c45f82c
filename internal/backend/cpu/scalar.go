package cpu

import (
	"github.com/5usu/depthgo/internal/tensor"
)

func (cpu *CPUBackend) scalarOp(op string, x *tensor.RawTensor, f func(v float32) float32) *tensor.RawTensor {
	requireFloat32(op, x)

	result := mustRaw(x.Shape(), tensor.Float32)
	dst := result.AsFloat32()
	src := x.AsFloat32()
	for i, v := range src {
		dst[i] = f(v)
	}
	return result
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.scalarOp("add_scalar", x, func(v float32) float32 { return v + s })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.scalarOp("mul_scalar", x, func(v float32) float32 { return v * s })
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.scalarOp("div_scalar", x, func(v float32) float32 { return v / s })
}
