package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5usu/depthgo/internal/backend/cpu"
	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/nn"
	"github.com/5usu/depthgo/internal/tensor"
)

// branchyNet divides by 255 only when its input exceeds 1, like the
// preprocessing wrapper's range check.
type branchyNet struct{}

func (branchyNet) Forward(x *tensor.Tensor[float32]) *tensor.Tensor[float32] {
	max := float32(0)
	for _, v := range x.Data() {
		if v > max {
			max = v
		}
	}
	if max > 1 {
		x = x.DivScalar(255)
	}
	return x.ReLU()
}

func (branchyNet) Parameters() []*nn.Parameter { return nil }
func (branchyNet) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}
func (branchyNet) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// TestTrace_CapturesConvNetwork records a small convolutional module
// with its weights as constants.
func TestTrace_CapturesConvNetwork(t *testing.T) {
	backend := cpu.New()
	net := nn.NewSequential(
		nn.NewConv2D(1, 2, 3, 1, 1, true, backend),
		nn.NewReLU(),
	)

	example := tensor.Randn[float32](tensor.Shape{1, 1, 8, 8}, backend)
	traced, err := Trace(net, example, backend, Options{})
	require.NoError(t, err)

	g := traced.Graph
	require.NoError(t, g.Validate())
	assert.Len(t, g.Inputs, 1)
	assert.Len(t, g.Outputs, 1)

	ops := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ops[i] = n.Op
	}
	// conv2d, bias reshape-broadcast add, relu
	assert.Contains(t, ops, graph.OpConv2D)
	assert.Contains(t, ops, graph.OpReLU)

	// Weight and bias entered the graph as constants.
	assert.GreaterOrEqual(t, len(g.Constants), 2)
	for _, id := range g.Constants {
		_, ok := traced.Constants[graph.ConstantName(id)]
		assert.True(t, ok, "constant %d has no tensor", id)
	}
}

// TestTrace_ConstantsAreFrozen: mutating a weight after tracing must
// not change the captured constant.
func TestTrace_ConstantsAreFrozen(t *testing.T) {
	backend := cpu.New()
	conv := nn.NewConv2D(1, 1, 1, 1, 0, false, backend)
	net := nn.NewSequential(conv)

	example := tensor.Ones[float32](tensor.Shape{1, 1, 2, 2}, backend)
	traced, err := Trace(net, example, backend, Options{})
	require.NoError(t, err)

	before := make(map[string]float32)
	for name, raw := range traced.Constants {
		before[name] = raw.AsFloat32()[0]
	}

	conv.StateDict()["weight"].AsFloat32()[0] += 100

	for name, raw := range traced.Constants {
		assert.Equal(t, before[name], raw.AsFloat32()[0], "constant %s changed after trace", name)
	}
}

// TestTrace_BakesTakenBranch: only the branch the example takes is in
// the graph.
func TestTrace_BakesTakenBranch(t *testing.T) {
	backend := cpu.New()

	trace := func(fill float32) *graph.Graph {
		example := tensor.Full[float32](tensor.Shape{1, 4}, fill, backend)
		traced, err := Trace(branchyNet{}, example, backend, Options{})
		require.NoError(t, err)
		return traced.Graph
	}

	withDiv := trace(200)
	assert.Len(t, withDiv.Nodes, 2, "expected div_scalar + relu")
	assert.Equal(t, graph.OpDivScalar, withDiv.Nodes[0].Op)

	withoutDiv := trace(0.5)
	assert.Len(t, withoutDiv.Nodes, 1, "expected relu only")
	assert.Equal(t, graph.OpReLU, withoutDiv.Nodes[0].Op)
}

// TestTrace_StrictAcceptsStableModule: strict mode re-traces on a
// fresh sample and passes for modules without data-dependent control
// flow.
func TestTrace_StrictAcceptsStableModule(t *testing.T) {
	backend := cpu.New()
	net := nn.NewSequential(nn.NewReLU())

	example := tensor.Randn[float32](tensor.Shape{1, 8}, backend)
	_, err := Trace(net, example, backend, Options{Strict: true})
	assert.NoError(t, err)
}

// TestTrace_CheckTraceReplays: replay through the runtime matches the
// eager output for a deterministic module.
func TestTrace_CheckTraceReplays(t *testing.T) {
	backend := cpu.New()
	net := nn.NewSequential(
		nn.NewConv2D(1, 2, 3, 1, 1, true, backend),
		nn.NewReLU(),
		nn.NewConv2D(2, 1, 3, 1, 1, true, backend),
	)

	example := tensor.Randn[float32](tensor.Shape{1, 1, 8, 8}, backend)
	_, err := Trace(net, example, backend, Options{CheckTrace: true})
	assert.NoError(t, err)
}
