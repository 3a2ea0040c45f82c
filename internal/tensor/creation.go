package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType](shape Shape, b Backend) *Tensor[T] {
	var dummy T
	dtype := inferDataType(dummy)

	raw, err := NewRaw(shape, dtype)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType](shape Shape, b Backend) *Tensor[T] {
	return Full[T](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType](shape Shape, value T, b Backend) *Tensor[T] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with values drawn from a standard normal
// distribution via the Box-Muller transform. Only float types.
//
// The export pipeline uses this for the synthetic example input that
// drives tracing. Uses math/rand; nothing here is security-sensitive.
func Randn[T DType](shape Shape, b Backend) *Tensor[T] {
	t := Zeros[T](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		dataF32 := any(data).([]float32)
		for i := 0; i < len(dataF32); i += 2 {
			u1 := 1 - rand.Float64() //nolint:gosec // G404: statistical use, and 1-u keeps the log argument in (0,1]
			u2 := rand.Float64() //nolint:gosec // G404: statistical use
			z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
			z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
			dataF32[i] = float32(z0)
			if i+1 < len(dataF32) {
				dataF32[i+1] = float32(z1)
			}
		}
	case float64:
		dataF64 := any(data).([]float64)
		for i := 0; i < len(dataF64); i += 2 {
			u1 := 1 - rand.Float64() //nolint:gosec // G404: statistical use, and 1-u keeps the log argument in (0,1]
			u2 := rand.Float64() //nolint:gosec // G404: statistical use
			z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
			z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
			dataF64[i] = z0
			if i+1 < len(dataF64) {
				dataF64[i+1] = z1
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}
