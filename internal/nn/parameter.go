package nn

import (
	"github.com/5usu/depthgo/internal/tensor"
)

// Parameter represents a named weight tensor of a layer.
type Parameter struct {
	name   string
	tensor *tensor.Tensor[float32]
}

// NewParameter creates a new parameter.
// The tensor should be initialized before creating the Parameter.
func NewParameter(name string, t *tensor.Tensor[float32]) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor[float32] {
	return p.tensor
}
