package runtime

import (
	"fmt"
	"sort"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/tensor"
)

// OpHandler executes one graph node and returns its output tensor.
type OpHandler func(ctx *Context, node *graph.Node, inputs []*tensor.RawTensor) (*tensor.RawTensor, error)

// Context provides the execution backend to operators.
type Context struct {
	Backend tensor.Backend
}

// Registry maps graph operation names to handlers.
type Registry struct {
	handlers map[string]OpHandler
}

// NewRegistry creates a registry with every supported operation.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]OpHandler)}

	r.Register(graph.OpAdd, func(ctx *Context, _ *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return ctx.Backend.Add(in[0], in[1]), nil
	})
	r.Register(graph.OpSub, func(ctx *Context, _ *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return ctx.Backend.Sub(in[0], in[1]), nil
	})
	r.Register(graph.OpMul, func(ctx *Context, _ *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return ctx.Backend.Mul(in[0], in[1]), nil
	})
	r.Register(graph.OpDiv, func(ctx *Context, _ *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return ctx.Backend.Div(in[0], in[1]), nil
	})

	r.Register(graph.OpAddScalar, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		v, err := floatAttr(node, "value")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.AddScalar(in[0], v), nil
	})
	r.Register(graph.OpMulScalar, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		v, err := floatAttr(node, "value")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.MulScalar(in[0], v), nil
	})
	r.Register(graph.OpDivScalar, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		v, err := floatAttr(node, "value")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.DivScalar(in[0], v), nil
	})

	r.Register(graph.OpMatMul, func(ctx *Context, _ *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return ctx.Backend.MatMul(in[0], in[1]), nil
	})

	r.Register(graph.OpConv2D, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		stride, err := intAttr(node, "stride")
		if err != nil {
			return nil, err
		}
		padding, err := intAttr(node, "padding")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.Conv2D(in[0], in[1], stride, padding), nil
	})

	r.Register(graph.OpConvReLU, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		stride, err := intAttr(node, "stride")
		if err != nil {
			return nil, err
		}
		padding, err := intAttr(node, "padding")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.ReLU(ctx.Backend.Conv2D(in[0], in[1], stride, padding)), nil
	})

	r.Register(graph.OpReLU, func(ctx *Context, _ *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		return ctx.Backend.ReLU(in[0]), nil
	})

	r.Register(graph.OpResizeBilinear, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		outH, err := intAttr(node, "out_h")
		if err != nil {
			return nil, err
		}
		outW, err := intAttr(node, "out_w")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.ResizeBilinear(in[0], outH, outW), nil
	})

	r.Register(graph.OpReshape, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		shape, ok := node.AttrInts["shape"]
		if !ok {
			return nil, fmt.Errorf("op %s: missing attribute %q", node.Op, "shape")
		}
		return ctx.Backend.Reshape(in[0], tensor.Shape(shape)), nil
	})
	r.Register(graph.OpUnsqueeze, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		dim, err := intAttr(node, "dim")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.Unsqueeze(in[0], dim), nil
	})
	r.Register(graph.OpSqueeze, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		dim, err := intAttr(node, "dim")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.Squeeze(in[0], dim), nil
	})

	r.Register(graph.OpCast, func(ctx *Context, node *graph.Node, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
		dt, err := intAttr(node, "dtype")
		if err != nil {
			return nil, err
		}
		return ctx.Backend.Cast(in[0], tensor.DataType(dt)), nil
	})

	return r
}

// Register adds or replaces an operation handler.
func (r *Registry) Register(op string, handler OpHandler) {
	r.handlers[op] = handler
}

// Get returns the handler for an operation name.
func (r *Registry) Get(op string) (OpHandler, bool) {
	h, ok := r.handlers[op]
	return h, ok
}

// SupportedOps returns all registered operation names, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func intAttr(node *graph.Node, key string) (int, error) {
	v, ok := node.AttrInt[key]
	if !ok {
		return 0, fmt.Errorf("op %s: missing attribute %q", node.Op, key)
	}
	return v, nil
}

func floatAttr(node *graph.Node, key string) (float64, error) {
	v, ok := node.AttrFloat[key]
	if !ok {
		return 0, fmt.Errorf("op %s: missing attribute %q", node.Op, key)
	}
	return v, nil
}
