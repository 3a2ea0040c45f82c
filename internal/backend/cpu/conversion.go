package cpu

import (
	"fmt"

	"github.com/5usu/depthgo/internal/tensor"
)

// Cast converts a tensor to a different data type.
// Casting to the same type returns a copy.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result := mustRaw(x.Shape(), dtype)

	switch {
	case x.DType() == tensor.Uint8 && dtype == tensor.Float32:
		src := x.AsUint8()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case x.DType() == tensor.Float32 && dtype == tensor.Uint8:
		src := x.AsFloat32()
		dst := result.AsUint8()
		for i, v := range src {
			switch {
			case v <= 0:
				dst[i] = 0
			case v >= 255:
				dst[i] = 255
			default:
				dst[i] = uint8(v)
			}
		}
	case x.DType() == tensor.Float32 && dtype == tensor.Float64:
		src := x.AsFloat32()
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	case x.DType() == tensor.Float64 && dtype == tensor.Float32:
		src := x.AsFloat64()
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported conversion %s -> %s", x.DType(), dtype))
	}

	return result
}
