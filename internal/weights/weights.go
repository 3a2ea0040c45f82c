// Package weights loads parameter checkpoints and applies them to
// networks non-strictly.
package weights

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/x448/float16"

	"github.com/5usu/depthgo/internal/nn"
	"github.com/5usu/depthgo/internal/serialization"
	"github.com/5usu/depthgo/internal/tensor"
)

// statePrefix is the sub-structure prefix some checkpoints wrap their
// parameters in. Load strips it so the names line up with module
// state dicts either way.
const statePrefix = "state_dict."

// Load reads a weight checkpoint into a name-to-tensor map.
//
// Half-precision entries are widened to float32 on read. Entries
// prefixed with "state_dict." are unwrapped transparently.
func Load(path string) (map[string]*tensor.RawTensor, error) {
	r, err := serialization.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	defer r.Close()

	header := r.Header()
	if header.Kind != serialization.KindStateDict {
		return nil, fmt.Errorf("weights: %w: %q (expected %q)",
			serialization.ErrUnsupportedKind, header.Kind, serialization.KindStateDict)
	}

	out := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		name := strings.TrimPrefix(meta.Name, statePrefix)

		var raw *tensor.RawTensor
		if meta.DType == serialization.DTypeFloat16 {
			raw, err = loadHalf(r, meta)
		} else {
			raw, err = r.LoadTensor(meta.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("weights: tensor %s: %w", meta.Name, err)
		}
		out[name] = raw
	}
	return out, nil
}

func loadHalf(r *serialization.Reader, meta serialization.TensorMeta) (*tensor.RawTensor, error) {
	data, err := r.ReadTensorData(meta.Name)
	if err != nil {
		return nil, err
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("odd byte count %d for float16 data", len(data))
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	raw, err := tensor.NewRaw(shape, tensor.Float32)
	if err != nil {
		return nil, err
	}

	dst := raw.AsFloat32()
	if len(dst) != len(data)/2 {
		return nil, fmt.Errorf("float16 data holds %d elements, shape %v wants %d", len(data)/2, shape, len(dst))
	}
	for i := range dst {
		bits := uint16(data[2*i]) | uint16(data[2*i+1])<<8
		dst[i] = float16.Frombits(bits).Float32()
	}
	return raw, nil
}

// Apply copies checkpoint tensors into the matching parameters of m.
//
// Loading is non-strict: names present in only one side, and shape or
// dtype mismatches, are reported as warnings and skipped rather than
// failing the export. Returns the number of parameters loaded.
func Apply(m nn.Module, checkpoint map[string]*tensor.RawTensor) int {
	return ApplyTo(os.Stderr, m, checkpoint)
}

// ApplyTo is Apply with an explicit warning sink.
func ApplyTo(w io.Writer, m nn.Module, checkpoint map[string]*tensor.RawTensor) int {
	params := m.StateDict()
	loaded := 0

	for _, name := range sortedKeys(checkpoint) {
		src := checkpoint[name]
		dst, ok := params[name]
		if !ok {
			fmt.Fprintf(w, "warning: checkpoint parameter %q has no match in the network, skipping\n", name)
			continue
		}
		if !src.Shape().Equal(dst.Shape()) {
			fmt.Fprintf(w, "warning: parameter %q shape mismatch: checkpoint %v, network %v, skipping\n",
				name, src.Shape(), dst.Shape())
			continue
		}
		if src.DType() != dst.DType() {
			fmt.Fprintf(w, "warning: parameter %q dtype mismatch: checkpoint %s, network %s, skipping\n",
				name, src.DType(), dst.DType())
			continue
		}
		copy(dst.Data(), src.Data())
		loaded++
	}

	var missing []string
	for name := range params {
		if _, ok := checkpoint[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		fmt.Fprintf(w, "warning: %d network parameter(s) not present in checkpoint: %s\n",
			len(missing), strings.Join(missing, ", "))
	}

	return loaded
}

func sortedKeys(m map[string]*tensor.RawTensor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
