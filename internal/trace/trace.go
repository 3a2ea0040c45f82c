package trace

import (
	"fmt"
	"math"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/nn"
	"github.com/5usu/depthgo/internal/runtime"
	"github.com/5usu/depthgo/internal/tensor"
)

// Options controls the optional verification passes after capture.
type Options struct {
	// Strict traces the module a second time on a fresh example and
	// fails when the captured structure diverges, which happens when
	// the module branches on input values. Leave false for modules
	// with intentional data-dependent control flow.
	Strict bool

	// CheckTrace replays the captured graph on the example input and
	// compares the result against the eager output. Leave false when
	// the example is synthetic and numerical agreement is not
	// meaningful.
	CheckTrace bool
}

// Traced is the result of a capture: the operation graph plus the
// constant tensors (weights, normalization vectors) it references.
type Traced struct {
	Graph     *graph.Graph
	Constants map[string]*tensor.RawTensor
}

// Trace runs m once on example, recording every tensor operation.
//
// The example tensor's values matter: branches taken during this one
// execution are baked into the graph.
func Trace(m nn.Module, example *tensor.Tensor[float32], backend tensor.Backend, opts Options) (*Traced, error) {
	g, constants, eager, err := capture(m, example.Raw(), backend)
	if err != nil {
		return nil, err
	}

	if opts.Strict {
		second := tensor.Randn[float32](example.Shape(), backend)
		g2, _, _, err := capture(m, second.Raw(), backend)
		if err != nil {
			return nil, fmt.Errorf("trace: strict re-trace failed: %w", err)
		}
		if err := compareStructure(g, g2); err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
	}

	if opts.CheckTrace {
		if err := checkReplay(g, constants, example.Raw(), eager, backend); err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
	}

	return &Traced{Graph: g, Constants: constants}, nil
}

func capture(m nn.Module, example *tensor.RawTensor, backend tensor.Backend) (*graph.Graph, map[string]*tensor.RawTensor, *tensor.RawTensor, error) {
	rec := NewRecorder(backend)
	in := example.Clone()
	rec.RegisterInput(in)

	x := tensor.New[float32](in, rec)
	out := m.Forward(x)

	g, constants, err := rec.Finish(out.Raw())
	if err != nil {
		return nil, nil, nil, err
	}
	return g, constants, out.Raw(), nil
}

// compareStructure checks that two captured graphs performed the same
// sequence of operations with the same attributes. Value ids are
// assigned deterministically, so identical control flow yields
// identical node lists.
func compareStructure(a, b *graph.Graph) error {
	if len(a.Nodes) != len(b.Nodes) {
		return fmt.Errorf("traced structure diverged: %d ops vs %d ops on re-trace", len(a.Nodes), len(b.Nodes))
	}
	for i := range a.Nodes {
		na, nb := &a.Nodes[i], &b.Nodes[i]
		if na.Op != nb.Op {
			return fmt.Errorf("traced structure diverged at op %d: %s vs %s", i, na.Op, nb.Op)
		}
		if len(na.Inputs) != len(nb.Inputs) {
			return fmt.Errorf("traced structure diverged at op %d (%s): input arity", i, na.Op)
		}
		if !sameIntAttrs(na.AttrInt, nb.AttrInt) || !sameFloatAttrs(na.AttrFloat, nb.AttrFloat) || !sameIntsAttrs(na.AttrInts, nb.AttrInts) {
			return fmt.Errorf("traced structure diverged at op %d (%s): attributes", i, na.Op)
		}
	}
	return nil
}

func sameIntAttrs(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func sameFloatAttrs(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func sameIntsAttrs(a, b map[string][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || len(bv) != len(v) {
			return false
		}
		for i := range v {
			if v[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

const replayTolerance = 1e-4

func checkReplay(g *graph.Graph, constants map[string]*tensor.RawTensor, example, eager *tensor.RawTensor, backend tensor.Backend) error {
	prog, err := runtime.NewProgram(g, constants, backend)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	replayed, err := prog.Run(example)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if !replayed.Shape().Equal(eager.Shape()) {
		return fmt.Errorf("replay output shape %v differs from eager %v", replayed.Shape(), eager.Shape())
	}
	got, want := replayed.AsFloat32(), eager.AsFloat32()
	for i := range want {
		if diff := math.Abs(float64(got[i] - want[i])); diff > replayTolerance {
			return fmt.Errorf("replay output diverged from eager execution at element %d: %g vs %g", i, got[i], want[i])
		}
	}
	return nil
}
