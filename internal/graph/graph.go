// Package graph defines the static computation graph captured by
// tracing and embedded in exported artifacts.
//
// A graph is a flat list of single-output nodes in execution order,
// referring to values by integer id. Values are produced by graph
// inputs, embedded constants (weights and normalization vectors), or
// earlier nodes.
package graph

import "fmt"

// Operation names. The lite runtime's operator registry is keyed by
// these strings; adding an op means teaching both the trace recorder
// and the runtime about it.
const (
	OpAdd            = "add"
	OpSub            = "sub"
	OpMul            = "mul"
	OpDiv            = "div"
	OpAddScalar      = "add_scalar"
	OpMulScalar      = "mul_scalar"
	OpDivScalar      = "div_scalar"
	OpMatMul         = "matmul"
	OpConv2D         = "conv2d"
	OpConvReLU       = "conv_relu" // fused by the mobile optimizer
	OpReLU           = "relu"
	OpResizeBilinear = "resize_bilinear"
	OpReshape        = "reshape"
	OpUnsqueeze      = "unsqueeze"
	OpSqueeze        = "squeeze"
	OpCast           = "cast"
)

// Node is a single operation in the graph.
type Node struct {
	Op     string `json:"op"`
	Inputs []int  `json:"inputs"`
	Output int    `json:"output"`

	// Attributes, by type. Keys depend on Op: conv2d uses
	// "stride"/"padding", resize_bilinear "out_h"/"out_w",
	// scalar ops "value", reshape "shape", squeeze/unsqueeze "dim",
	// cast "dtype".
	AttrInt   map[string]int     `json:"attr_int,omitempty"`
	AttrFloat map[string]float64 `json:"attr_float,omitempty"`
	AttrInts  map[string][]int   `json:"attr_ints,omitempty"`
}

// Graph is a traced computation ready for serialization or execution.
type Graph struct {
	Inputs    []int  `json:"inputs"`
	Outputs   []int  `json:"outputs"`
	Constants []int  `json:"constants"`
	Nodes     []Node `json:"nodes"`
}

// ConstantName returns the tensor-directory name under which the
// constant for a value id is stored in an artifact.
func ConstantName(id int) string {
	return fmt.Sprintf("const_%d", id)
}

// Validate checks structural integrity: every node input must be
// defined (as graph input, constant, or earlier node output) before
// use, node outputs must not collide, and every graph output must be
// produced.
func (g *Graph) Validate() error {
	defined := make(map[int]bool)
	for _, id := range g.Inputs {
		defined[id] = true
	}
	for _, id := range g.Constants {
		defined[id] = true
	}

	for i, node := range g.Nodes {
		for _, in := range node.Inputs {
			if !defined[in] {
				return fmt.Errorf("node %d (%s): input value %d used before definition", i, node.Op, in)
			}
		}
		if defined[node.Output] {
			return fmt.Errorf("node %d (%s): output value %d already defined", i, node.Op, node.Output)
		}
		defined[node.Output] = true
	}

	for _, out := range g.Outputs {
		if !defined[out] {
			return fmt.Errorf("graph output value %d is never produced", out)
		}
	}
	return nil
}

// Clone returns a deep copy of the graph. Optimizer passes work on a
// clone so a failed pass can fall back to the original.
func (g *Graph) Clone() *Graph {
	clone := &Graph{
		Inputs:    append([]int(nil), g.Inputs...),
		Outputs:   append([]int(nil), g.Outputs...),
		Constants: append([]int(nil), g.Constants...),
		Nodes:     make([]Node, len(g.Nodes)),
	}
	for i, node := range g.Nodes {
		clone.Nodes[i] = Node{
			Op:     node.Op,
			Inputs: append([]int(nil), node.Inputs...),
			Output: node.Output,
		}
		if node.AttrInt != nil {
			clone.Nodes[i].AttrInt = make(map[string]int, len(node.AttrInt))
			for k, v := range node.AttrInt {
				clone.Nodes[i].AttrInt[k] = v
			}
		}
		if node.AttrFloat != nil {
			clone.Nodes[i].AttrFloat = make(map[string]float64, len(node.AttrFloat))
			for k, v := range node.AttrFloat {
				clone.Nodes[i].AttrFloat[k] = v
			}
		}
		if node.AttrInts != nil {
			clone.Nodes[i].AttrInts = make(map[string][]int, len(node.AttrInts))
			for k, v := range node.AttrInts {
				clone.Nodes[i].AttrInts[k] = append([]int(nil), v...)
			}
		}
	}
	return clone
}
