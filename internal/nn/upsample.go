package nn

import (
	"fmt"

	"github.com/5usu/depthgo/internal/tensor"
)

// Upsample scales the spatial dimensions of a [N,C,H,W] tensor by an
// integer factor using bilinear interpolation.
//
// The target size is computed from the input's shape at forward time;
// under tracing this bakes the concrete resolution into the captured
// graph, which is exactly what a fixed-resolution export wants.
type Upsample struct {
	scale int
}

// NewUpsample creates an upsampling module with the given scale factor.
func NewUpsample(scale int) *Upsample {
	if scale <= 0 {
		panic(fmt.Sprintf("upsample: invalid scale %d", scale))
	}
	return &Upsample{scale: scale}
}

// Forward resizes the input to (H*scale, W*scale).
func (u *Upsample) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("upsample: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	return input.ResizeBilinear(shape[2]*u.scale, shape[3]*u.scale)
}

// Parameters returns nil (Upsample has no parameters).
func (u *Upsample) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (u *Upsample) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for parameterless modules.
func (u *Upsample) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
