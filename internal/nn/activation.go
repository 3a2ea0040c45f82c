package nn

import (
	"github.com/5usu/depthgo/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module: f(x) = max(0, x).
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation.
func (r *ReLU) Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	return input.ReLU()
}

// Parameters returns nil (ReLU has no parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (r *ReLU) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op for parameterless modules.
func (r *ReLU) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
