// Package nn implements the neural network building blocks used by the
// depth architectures and the preprocessing wrapper.
//
// Modules here are forward-only: there is no gradient tracking and no
// training mode, because the only consumer is the export pipeline,
// which runs a single inference pass to capture the computation graph.
package nn

import (
	"github.com/5usu/depthgo/internal/tensor"
)

// Module is the base interface for all network components.
//
// Forward dispatches its tensor operations through the input tensor's
// backend. Feeding a module an input created on the trace recorder
// therefore records the module's whole computation.
type Module interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32]) *tensor.Tensor[float32]

	// Parameters returns all parameters of this module, including
	// nested module parameters. Empty for parameterless modules.
	Parameters() []*Parameter

	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	// Missing or mismatched entries are errors; tolerant loading is
	// layered on top by the weights package.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
