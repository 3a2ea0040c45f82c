package cpu

import (
	"fmt"

	"github.com/5usu/depthgo/internal/tensor"
)

// ResizeBilinear resizes the spatial dimensions of a [N,C,H,W] tensor
// to (outH, outW) with bilinear interpolation.
//
// Sample positions use half-pixel centers:
//
//	src = (dst + 0.5) * (in / out) - 0.5
//
// i.e. align_corners=false semantics, the standard image-resize
// convention. Border samples clamp to the edge pixel.
func (cpu *CPUBackend) ResizeBilinear(x *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	requireFloat32("resize_bilinear", x)

	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("resize_bilinear: expected 4D input [N,C,H,W], got %v", shape))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("resize_bilinear: invalid target size %dx%d", outH, outW))
	}

	batch, channels, inH, inW := shape[0], shape[1], shape[2], shape[3]

	result := mustRaw(tensor.Shape{batch, channels, outH, outW}, tensor.Float32)
	dst := result.AsFloat32()
	src := x.AsFloat32()

	scaleY := float64(inH) / float64(outH)
	scaleX := float64(inW) / float64(outW)

	for n := 0; n < batch; n++ {
		for c := 0; c < channels; c++ {
			plane := src[(n*channels+c)*inH*inW:]
			out := dst[(n*channels+c)*outH*outW:]

			for oy := 0; oy < outH; oy++ {
				fy := (float64(oy)+0.5)*scaleY - 0.5
				if fy < 0 {
					fy = 0
				}
				y0 := int(fy)
				if y0 > inH-1 {
					y0 = inH - 1
				}
				y1 := y0 + 1
				if y1 > inH-1 {
					y1 = inH - 1
				}
				wy := float32(fy - float64(y0))

				for ox := 0; ox < outW; ox++ {
					fx := (float64(ox)+0.5)*scaleX - 0.5
					if fx < 0 {
						fx = 0
					}
					x0 := int(fx)
					if x0 > inW-1 {
						x0 = inW - 1
					}
					x1 := x0 + 1
					if x1 > inW-1 {
						x1 = inW - 1
					}
					wx := float32(fx - float64(x0))

					p00 := plane[y0*inW+x0]
					p10 := plane[y0*inW+x1]
					p01 := plane[y1*inW+x0]
					p11 := plane[y1*inW+x1]

					top := p00 + wx*(p10-p00)
					bot := p01 + wx*(p11-p01)
					out[oy*outW+ox] = top + wy*(bot-top)
				}
			}
		}
	}

	return result
}
