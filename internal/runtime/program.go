// Package runtime loads and executes exported depth artifacts.
//
// A Program is the consumer-side counterpart of the exporter: it holds
// the operation graph and constant tensors from a .ptl file and runs
// them node by node on a backend.
package runtime

import (
	"fmt"
	"strings"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/serialization"
	"github.com/5usu/depthgo/internal/tensor"
)

// SupportedFormatVersion is the newest artifact format this runtime
// can execute. Load refuses files written by a newer exporter.
const SupportedFormatVersion = serialization.FormatVersion

// Program is a loaded, executable depth model.
type Program struct {
	graph     *graph.Graph
	constants map[int]*tensor.RawTensor
	registry  *Registry
	backend   tensor.Backend
	header    serialization.Header
}

// NewProgram builds a program from an in-memory graph and its
// constants, keyed by graph.ConstantName.
func NewProgram(g *graph.Graph, constants map[string]*tensor.RawTensor, backend tensor.Backend) (*Program, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("runtime: invalid graph: %w", err)
	}
	if len(g.Inputs) != 1 {
		return nil, fmt.Errorf("runtime: expected exactly one graph input, got %d", len(g.Inputs))
	}
	if len(g.Outputs) != 1 {
		return nil, fmt.Errorf("runtime: expected exactly one graph output, got %d", len(g.Outputs))
	}

	byID := make(map[int]*tensor.RawTensor, len(g.Constants))
	for _, id := range g.Constants {
		raw, ok := constants[graph.ConstantName(id)]
		if !ok {
			return nil, fmt.Errorf("runtime: missing constant tensor %s", graph.ConstantName(id))
		}
		byID[id] = raw
	}

	registry := NewRegistry()
	for _, node := range g.Nodes {
		if _, ok := registry.Get(node.Op); !ok {
			return nil, fmt.Errorf("runtime: unsupported operation %q (supported: %s)",
				node.Op, strings.Join(registry.SupportedOps(), ", "))
		}
	}

	return &Program{
		graph:     g,
		constants: byID,
		registry:  registry,
		backend:   backend,
	}, nil
}

// Load reads an exported artifact from disk.
func Load(path string, backend tensor.Backend) (*Program, error) {
	r, err := serialization.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	defer r.Close()

	header := r.Header()
	if header.Kind != serialization.KindGraph {
		return nil, fmt.Errorf("runtime: %w: %q", serialization.ErrUnsupportedKind, header.Kind)
	}
	if header.FormatVersion > SupportedFormatVersion {
		return nil, fmt.Errorf("runtime: %w: artifact format %d, runtime supports up to %d",
			serialization.ErrUnsupportedVersion, header.FormatVersion, SupportedFormatVersion)
	}

	constants, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	p, err := NewProgram(header.Graph, constants, backend)
	if err != nil {
		return nil, err
	}
	p.header = header
	return p, nil
}

// Header returns the artifact header. Zero value for programs built
// with NewProgram.
func (p *Program) Header() serialization.Header {
	return p.header
}

// Run executes the program on one input tensor and returns the depth
// output.
//
// Inputs that are not float32 are cast first, mirroring the dtype
// normalization fused into exported models.
func (p *Program) Run(input *tensor.RawTensor) (out *tensor.RawTensor, err error) {
	// Backend ops panic on shape and dtype violations. The artifact
	// is external data, so contain those here.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("runtime: execution failed: %v", r)
		}
	}()

	if input.DType() != tensor.Float32 {
		input = p.backend.Cast(input, tensor.Float32)
	}

	values := make(map[int]*tensor.RawTensor, len(p.graph.Nodes)+len(p.constants)+1)
	for id, raw := range p.constants {
		values[id] = raw
	}
	values[p.graph.Inputs[0]] = input

	ctx := &Context{Backend: p.backend}
	for i := range p.graph.Nodes {
		node := &p.graph.Nodes[i]

		inputs := make([]*tensor.RawTensor, len(node.Inputs))
		for j, id := range node.Inputs {
			v, ok := values[id]
			if !ok {
				return nil, fmt.Errorf("runtime: node %d (%s): value %d not computed", i, node.Op, id)
			}
			inputs[j] = v
		}

		handler, _ := p.registry.Get(node.Op)
		result, err := handler(ctx, node, inputs)
		if err != nil {
			return nil, fmt.Errorf("runtime: node %d (%s): %w", i, node.Op, err)
		}
		values[node.Output] = result
	}

	result, ok := values[p.graph.Outputs[0]]
	if !ok {
		return nil, fmt.Errorf("runtime: output value %d was never computed", p.graph.Outputs[0])
	}
	return result, nil
}
