package serialization

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/tensor"
)

func makeTensor(t *testing.T, shape tensor.Shape, fill float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32)
	if err != nil {
		t.Fatal(err)
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = fill + float32(i)
	}
	return raw
}

func testGraph() *graph.Graph {
	return &graph.Graph{
		Inputs:    []int{0},
		Constants: []int{1},
		Outputs:   []int{2},
		Nodes: []graph.Node{
			{Op: graph.OpMul, Inputs: []int{0, 1}, Output: 2},
		},
	}
}

// TestArtifactRoundTrip writes a graph artifact and reads it back.
func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ptl")

	constants := map[string]*tensor.RawTensor{
		"const_1": makeTensor(t, tensor.Shape{2, 3}, 1),
	}

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteArtifact(testGraph(), constants, "MiDaS_small", map[string]string{"input_height": "256"}); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	h := r.Header()
	if h.Kind != KindGraph {
		t.Errorf("kind = %q, want %q", h.Kind, KindGraph)
	}
	if h.ModelKey != "MiDaS_small" {
		t.Errorf("model key = %q", h.ModelKey)
	}
	if h.FormatVersion != FormatVersion {
		t.Errorf("format version = %d", h.FormatVersion)
	}
	if h.Graph == nil || len(h.Graph.Nodes) != 1 {
		t.Fatal("graph missing from header")
	}
	if h.Metadata["input_height"] != "256" {
		t.Error("metadata lost")
	}

	raw, err := r.LoadTensor("const_1")
	if err != nil {
		t.Fatalf("LoadTensor: %v", err)
	}
	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("tensor shape = %v", raw.Shape())
	}
	if raw.AsFloat32()[5] != 6 {
		t.Errorf("tensor data corrupted: %v", raw.AsFloat32())
	}
}

// TestStateDictRoundTrip writes and reloads a checkpoint.
func TestStateDictRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.ptl")

	sd := map[string]*tensor.RawTensor{
		"0.weight": makeTensor(t, tensor.Shape{4, 3, 3, 3}, 0),
		"0.bias":   makeTensor(t, tensor.Shape{4}, 10),
	}

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteStateDict(sd, nil); err != nil {
		t.Fatalf("WriteStateDict: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()

	if r.Header().Kind != KindStateDict {
		t.Errorf("kind = %q", r.Header().Kind)
	}

	back, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("got %d tensors", len(back))
	}
	if back["0.bias"].AsFloat32()[0] != 10 {
		t.Error("bias data corrupted")
	}
}

// TestReader_ChecksumMismatch detects a flipped byte in the data
// section.
func TestReader_ChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.ptl")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteStateDict(map[string]*tensor.RawTensor{
		"w": makeTensor(t, tensor.Shape{8}, 1),
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = NewReader(path)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

// TestReader_InvalidMagic rejects files that are not .ptl containers.
func TestReader_InvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.ptl")
	if err := os.WriteFile(path, make([]byte, 128), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewReader(path)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

// TestReader_UnsupportedVersion rejects newer containers.
func TestReader_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.ptl")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteStateDict(map[string]*tensor.RawTensor{
		"w": makeTensor(t, tensor.Shape{2}, 0),
	}, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[4] = 99 // version field, little-endian low byte
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = NewReader(path)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

// TestValidateTensorOffsets covers overlap and bounds detection.
func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		size    int64
		wantErr bool
	}{
		{
			"adjacent regions",
			[]TensorMeta{
				{Name: "a", Offset: 0, Size: 16},
				{Name: "b", Offset: 16, Size: 16},
			},
			32, false,
		},
		{
			"overlap",
			[]TensorMeta{
				{Name: "a", Offset: 0, Size: 20},
				{Name: "b", Offset: 16, Size: 16},
			},
			64, true,
		},
		{
			"out of bounds",
			[]TensorMeta{
				{Name: "a", Offset: 0, Size: 64},
			},
			32, true,
		},
		{
			"negative offset",
			[]TensorMeta{
				{Name: "a", Offset: -8, Size: 8},
			},
			32, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// TestValidateTensorName rejects path-like names.
func TestValidateTensorName(t *testing.T) {
	if err := ValidateTensorName("0.weight"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	for _, name := range []string{"../etc/passwd", "a/b", "a\\b", "a\x00b"} {
		if err := ValidateTensorName(name); err == nil {
			t.Errorf("name %q accepted", name)
		}
	}
}

// TestDeterministicOutput: identical inputs produce identical bytes
// apart from the timestamp, so tensor ordering must be stable.
func TestDeterministicOutput(t *testing.T) {
	dir := t.TempDir()
	sd := map[string]*tensor.RawTensor{
		"b": makeTensor(t, tensor.Shape{4}, 1),
		"a": makeTensor(t, tensor.Shape{4}, 2),
		"c": makeTensor(t, tensor.Shape{4}, 3),
	}

	read := func(path string) Header {
		r, err := NewReader(path)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		return r.Header()
	}

	for _, name := range []string{"one.ptl", "two.ptl"} {
		w, err := NewWriter(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteStateDict(sd, nil); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
	}

	h1 := read(filepath.Join(dir, "one.ptl"))
	h2 := read(filepath.Join(dir, "two.ptl"))
	for i := range h1.Tensors {
		if h1.Tensors[i].Name != h2.Tensors[i].Name || h1.Tensors[i].Offset != h2.Tensors[i].Offset {
			t.Fatal("tensor layout differs between identical writes")
		}
	}
	if h1.Tensors[0].Name != "a" {
		t.Errorf("tensors not sorted: first is %q", h1.Tensors[0].Name)
	}
}
