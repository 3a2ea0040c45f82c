// Package trace captures a module's computation as a static graph by
// executing it once on an example input.
//
// The Recorder is a tensor.Backend decorator: every operation is
// executed eagerly on the wrapped backend, so value-dependent control
// flow in the traced module (such as the preprocessing range check)
// sees real data, while the operation stream is appended to a graph.
// Only the branch actually taken by the example input is captured,
// the classic tracing contract.
package trace

import (
	"fmt"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/tensor"
)

// Recorder records tensor operations into a graph while delegating
// execution to an inner backend.
type Recorder struct {
	inner  tensor.Backend
	nodes  []graph.Node
	ids    map[*tensor.RawTensor]int
	consts map[int]*tensor.RawTensor
	inputs []int
	nextID int
}

// NewRecorder creates a recorder around an execution backend.
func NewRecorder(inner tensor.Backend) *Recorder {
	return &Recorder{
		inner:  inner,
		ids:    make(map[*tensor.RawTensor]int),
		consts: make(map[int]*tensor.RawTensor),
	}
}

// Name returns the backend name.
func (r *Recorder) Name() string {
	return "trace(" + r.inner.Name() + ")"
}

// RegisterInput declares a tensor as a graph input and returns its
// value id. Must be called before the tensor participates in any
// recorded operation, otherwise it would be captured as a constant.
func (r *Recorder) RegisterInput(t *tensor.RawTensor) int {
	id := r.assign(t)
	r.inputs = append(r.inputs, id)
	return id
}

// valueID returns the id for a tensor, registering it as an embedded
// constant on first sight. Constants are captured by value: weights
// and normalization vectors entering the graph are frozen here.
func (r *Recorder) valueID(t *tensor.RawTensor) int {
	if id, ok := r.ids[t]; ok {
		return id
	}
	id := r.assign(t)
	r.consts[id] = t.Clone()
	return id
}

func (r *Recorder) assign(t *tensor.RawTensor) int {
	id := r.nextID
	r.nextID++
	r.ids[t] = id
	return id
}

func (r *Recorder) emit(out *tensor.RawTensor, node graph.Node) *tensor.RawTensor {
	node.Output = r.assign(out)
	r.nodes = append(r.nodes, node)
	return out
}

// Finish assembles the recorded graph with the given output tensors.
func (r *Recorder) Finish(outputs ...*tensor.RawTensor) (*graph.Graph, map[string]*tensor.RawTensor, error) {
	g := &graph.Graph{
		Inputs: append([]int(nil), r.inputs...),
		Nodes:  append([]graph.Node(nil), r.nodes...),
	}
	for id := range r.consts {
		g.Constants = append(g.Constants, id)
	}

	for _, out := range outputs {
		id, ok := r.ids[out]
		if !ok {
			return nil, nil, fmt.Errorf("trace: output tensor was not produced by a recorded operation")
		}
		g.Outputs = append(g.Outputs, id)
	}

	constants := make(map[string]*tensor.RawTensor, len(r.consts))
	for id, t := range r.consts {
		constants[graph.ConstantName(id)] = t
	}

	if err := g.Validate(); err != nil {
		return nil, nil, fmt.Errorf("trace: captured graph is invalid: %w", err)
	}
	return g, constants, nil
}

// Binary and unary ops below all follow the same pattern: resolve
// input ids, execute on the inner backend, emit a node for the result.

// Add records element-wise addition.
func (r *Recorder) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	ai, bi := r.valueID(a), r.valueID(b)
	return r.emit(r.inner.Add(a, b), graph.Node{Op: graph.OpAdd, Inputs: []int{ai, bi}})
}

// Sub records element-wise subtraction.
func (r *Recorder) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	ai, bi := r.valueID(a), r.valueID(b)
	return r.emit(r.inner.Sub(a, b), graph.Node{Op: graph.OpSub, Inputs: []int{ai, bi}})
}

// Mul records element-wise multiplication.
func (r *Recorder) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	ai, bi := r.valueID(a), r.valueID(b)
	return r.emit(r.inner.Mul(a, b), graph.Node{Op: graph.OpMul, Inputs: []int{ai, bi}})
}

// Div records element-wise division.
func (r *Recorder) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	ai, bi := r.valueID(a), r.valueID(b)
	return r.emit(r.inner.Div(a, b), graph.Node{Op: graph.OpDiv, Inputs: []int{ai, bi}})
}

// AddScalar records scalar addition.
func (r *Recorder) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.AddScalar(x, scalar), graph.Node{
		Op: graph.OpAddScalar, Inputs: []int{xi},
		AttrFloat: map[string]float64{"value": scalar},
	})
}

// MulScalar records scalar multiplication.
func (r *Recorder) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.MulScalar(x, scalar), graph.Node{
		Op: graph.OpMulScalar, Inputs: []int{xi},
		AttrFloat: map[string]float64{"value": scalar},
	})
}

// DivScalar records scalar division.
func (r *Recorder) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.DivScalar(x, scalar), graph.Node{
		Op: graph.OpDivScalar, Inputs: []int{xi},
		AttrFloat: map[string]float64{"value": scalar},
	})
}

// MatMul records matrix multiplication.
func (r *Recorder) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	ai, bi := r.valueID(a), r.valueID(b)
	return r.emit(r.inner.MatMul(a, b), graph.Node{Op: graph.OpMatMul, Inputs: []int{ai, bi}})
}

// Conv2D records a convolution.
func (r *Recorder) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	ii, ki := r.valueID(input), r.valueID(kernel)
	return r.emit(r.inner.Conv2D(input, kernel, stride, padding), graph.Node{
		Op: graph.OpConv2D, Inputs: []int{ii, ki},
		AttrInt: map[string]int{"stride": stride, "padding": padding},
	})
}

// ReLU records the rectifier.
func (r *Recorder) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.ReLU(x), graph.Node{Op: graph.OpReLU, Inputs: []int{xi}})
}

// ResizeBilinear records a bilinear resize to a fixed target size.
func (r *Recorder) ResizeBilinear(x *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.ResizeBilinear(x, outH, outW), graph.Node{
		Op: graph.OpResizeBilinear, Inputs: []int{xi},
		AttrInt: map[string]int{"out_h": outH, "out_w": outW},
	})
}

// Reshape records a shape change.
func (r *Recorder) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.Reshape(x, newShape), graph.Node{
		Op: graph.OpReshape, Inputs: []int{xi},
		AttrInts: map[string][]int{"shape": newShape},
	})
}

// Unsqueeze records insertion of a size-1 dimension.
func (r *Recorder) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.Unsqueeze(x, dim), graph.Node{
		Op: graph.OpUnsqueeze, Inputs: []int{xi},
		AttrInt: map[string]int{"dim": dim},
	})
}

// Squeeze records removal of a size-1 dimension.
func (r *Recorder) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.Squeeze(x, dim), graph.Node{
		Op: graph.OpSqueeze, Inputs: []int{xi},
		AttrInt: map[string]int{"dim": dim},
	})
}

// Cast records a dtype conversion.
func (r *Recorder) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	xi := r.valueID(x)
	return r.emit(r.inner.Cast(x, dtype), graph.Node{
		Op: graph.OpCast, Inputs: []int{xi},
		AttrInt: map[string]int{"dtype": int(dtype)},
	})
}
