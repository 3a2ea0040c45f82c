package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/5usu/depthgo/internal/tensor"
)

// Conv2D performs 2D convolution via im2col + matrix multiply.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// The unfolded patch matrix is multiplied against the flattened kernel
// with gonum, one batch element at a time.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32("conv2d", input, kernel)

	inShape := input.Shape()
	kShape := kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %v", inShape))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D kernel [O,C,kH,kW], got %v", kShape))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", inShape[1], kShape[1]))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	batch, inC, inH, inW := inShape[0], inShape[1], inShape[2], inShape[3]
	outC, kH, kW := kShape[0], kShape[2], kShape[3]

	outH := (inH+2*padding-kH)/stride + 1
	outW := (inW+2*padding-kW)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("conv2d: kernel %dx%d does not fit input %dx%d with stride=%d padding=%d",
			kH, kW, inH, inW, stride, padding))
	}

	result := mustRaw(tensor.Shape{batch, outC, outH, outW}, tensor.Float32)
	dst := result.AsFloat32()
	src := input.AsFloat32()

	// Kernel matrix [outC, inC*kH*kW], shared across the batch.
	km := mat.NewDense(outC, inC*kH*kW, toFloat64(kernel.AsFloat32()))

	patchLen := inC * kH * kW
	cols := make([]float64, patchLen*outH*outW)

	for n := 0; n < batch; n++ {
		// im2col: one column per output position.
		for c := 0; c < inC; c++ {
			for ky := 0; ky < kH; ky++ {
				for kx := 0; kx < kW; kx++ {
					row := (c*kH+ky)*kW + kx
					for oy := 0; oy < outH; oy++ {
						iy := oy*stride + ky - padding
						for ox := 0; ox < outW; ox++ {
							ix := ox*stride + kx - padding
							col := oy*outW + ox
							var v float64
							if iy >= 0 && iy < inH && ix >= 0 && ix < inW {
								v = float64(src[((n*inC+c)*inH+iy)*inW+ix])
							}
							cols[row*outH*outW+col] = v
						}
					}
				}
			}
		}

		cm := mat.NewDense(patchLen, outH*outW, cols)
		var out mat.Dense
		out.Mul(km, cm)

		raw := out.RawMatrix()
		base := n * outC * outH * outW
		for o := 0; o < outC; o++ {
			row := raw.Data[o*raw.Stride : o*raw.Stride+outH*outW]
			for i, v := range row {
				dst[base+o*outH*outW+i] = float32(v)
			}
		}
	}

	return result
}
