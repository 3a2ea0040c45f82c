// Package mobile rewrites a traced graph into a leaner form for
// on-device execution.
//
// Optimization is best effort: callers keep the unoptimized graph and
// fall back to it when Optimize returns an error.
package mobile

import (
	"fmt"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/tensor"
)

// Optimize applies the rewrite passes to a copy of g and returns the
// optimized graph with its (possibly reduced) constant set. The input
// graph and constants are never modified.
func Optimize(g *graph.Graph, constants map[string]*tensor.RawTensor) (*graph.Graph, map[string]*tensor.RawTensor, error) {
	out := g.Clone()

	removeIdentityCasts(out)
	canonicalizeScalarDiv(out)
	fuseConvReLU(out)
	kept := eliminateDeadNodes(out)

	outConsts := make(map[string]*tensor.RawTensor, len(kept))
	for _, id := range out.Constants {
		name := graph.ConstantName(id)
		raw, ok := constants[name]
		if !ok {
			return nil, nil, fmt.Errorf("mobile: constant %s referenced by graph but not provided", name)
		}
		outConsts[name] = raw
	}

	if err := out.Validate(); err != nil {
		return nil, nil, fmt.Errorf("mobile: optimized graph is invalid: %w", err)
	}
	return out, outConsts, nil
}

// removeIdentityCasts drops casts to float32. Program inputs are cast
// to float32 before execution and every operation preserves the dtype,
// so such casts cannot change anything.
func removeIdentityCasts(g *graph.Graph) {
	var nodes []graph.Node
	remap := make(map[int]int)

	for _, node := range g.Nodes {
		for i, id := range node.Inputs {
			if to, ok := remap[id]; ok {
				node.Inputs[i] = to
			}
		}
		if node.Op == graph.OpCast && tensor.DataType(node.AttrInt["dtype"]) == tensor.Float32 {
			remap[node.Output] = node.Inputs[0]
			continue
		}
		nodes = append(nodes, node)
	}

	g.Nodes = nodes
	for i, id := range g.Outputs {
		if to, ok := remap[id]; ok {
			g.Outputs[i] = to
		}
	}
}

// canonicalizeScalarDiv rewrites division by a scalar as
// multiplication by its reciprocal. A multiply is cheaper than a
// divide on every target; the reciprocal is rounded once, so results
// can differ from the original divide by about an ulp.
func canonicalizeScalarDiv(g *graph.Graph) {
	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Op != graph.OpDivScalar {
			continue
		}
		v := node.AttrFloat["value"]
		if v == 0 {
			continue
		}
		node.Op = graph.OpMulScalar
		node.AttrFloat = map[string]float64{"value": 1 / v}
	}
}

// fuseConvReLU merges a convolution directly followed by a rectifier
// into a single fused node. Requires the conv output to have no other
// consumer and not be a graph output.
func fuseConvReLU(g *graph.Graph) {
	consumers := make(map[int]int)
	for _, node := range g.Nodes {
		for _, id := range node.Inputs {
			consumers[id]++
		}
	}
	isOutput := make(map[int]bool)
	for _, id := range g.Outputs {
		isOutput[id] = true
	}

	producer := make(map[int]int) // value id -> node index
	for i, node := range g.Nodes {
		producer[node.Output] = i
	}

	fused := make(map[int]bool) // node indexes absorbed into a fusion
	for i := range g.Nodes {
		relu := &g.Nodes[i]
		if relu.Op != graph.OpReLU {
			continue
		}
		ci, ok := producer[relu.Inputs[0]]
		if !ok {
			continue
		}
		conv := &g.Nodes[ci]
		if conv.Op != graph.OpConv2D || consumers[conv.Output] != 1 || isOutput[conv.Output] {
			continue
		}

		conv.Op = graph.OpConvReLU
		conv.Output = relu.Output
		fused[i] = true
	}

	if len(fused) == 0 {
		return
	}
	nodes := make([]graph.Node, 0, len(g.Nodes)-len(fused))
	for i, node := range g.Nodes {
		if !fused[i] {
			nodes = append(nodes, node)
		}
	}
	g.Nodes = nodes
}

// eliminateDeadNodes removes nodes whose outputs never reach a graph
// output, then prunes constants no surviving node reads. Returns the
// ids of the constants kept.
func eliminateDeadNodes(g *graph.Graph) []int {
	live := make(map[int]bool)
	for _, id := range g.Outputs {
		live[id] = true
	}

	// Nodes are in execution order; a backward sweep settles liveness
	// in one pass.
	keep := make([]bool, len(g.Nodes))
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		node := &g.Nodes[i]
		if !live[node.Output] {
			continue
		}
		keep[i] = true
		for _, id := range node.Inputs {
			live[id] = true
		}
	}

	nodes := make([]graph.Node, 0, len(g.Nodes))
	for i, node := range g.Nodes {
		if keep[i] {
			nodes = append(nodes, node)
		}
	}
	g.Nodes = nodes

	var constants []int
	for _, id := range g.Constants {
		if live[id] {
			constants = append(constants, id)
		}
	}
	g.Constants = constants
	return constants
}
