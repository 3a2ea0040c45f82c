package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/5usu/depthgo/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
//
// The multiply runs through gonum's mat.Dense, which works in float64;
// at export-time problem sizes the conversion cost is irrelevant and
// gonum's blocked kernel is far faster than a naive triple loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("matmul", a, b)

	aShape := a.Shape()
	bShape := b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]

	am := mat.NewDense(m, k, toFloat64(a.AsFloat32()))
	bm := mat.NewDense(k, n, toFloat64(b.AsFloat32()))

	var out mat.Dense
	out.Mul(am, bm)

	result := mustRaw(tensor.Shape{m, n}, tensor.Float32)
	dst := result.AsFloat32()
	raw := out.RawMatrix()
	for i := 0; i < m; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+n]
		for j, v := range row {
			dst[i*n+j] = float32(v)
		}
	}
	return result
}

func toFloat64(src []float32) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}
