package serialization

import (
	"time"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "DPTL"
	FormatVersion   = 1
	FixedHeaderSize = 64   // 0x40 bytes
	HeaderAlignment = 64   // Tensor data aligned to 64 bytes
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Artifact kinds.
const (
	KindGraph     = "graph"      // exported program: graph + constant tensors
	KindStateDict = "state_dict" // weight checkpoint: named parameter tensors
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeFloat16 = "float16"
	DTypeUint8   = "uint8"
)

// Flags for the fixed header.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header is the JSON header of a .ptl file.
type Header struct {
	FormatVersion int               `json:"format_version"`      // Container format version
	ToolVersion   string            `json:"tool_version"`        // Version of the exporter that wrote this file
	Kind          string            `json:"kind"`                // "graph" or "state_dict"
	ModelKey      string            `json:"model_key,omitempty"` // Architecture key the graph was exported from
	CreatedAt     time.Time         `json:"created_at"`          // When the file was created
	Graph         *graph.Graph      `json:"graph,omitempty"`     // Operation graph (kind "graph" only)
	Tensors       []TensorMeta      `json:"tensors"`             // Tensor metadata
	Metadata      map[string]string `json:"metadata"`            // Custom metadata
}

// TensorMeta describes a tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "const_3", "body.0.weight")
	DType  string `json:"dtype"`  // Data type (e.g., "float32")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// dtypeToString converts tensor.DataType to its serialized name.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Uint8:
		return DTypeUint8
	default:
		return "unknown"
	}
}

// stringToDtype converts a serialized name back to tensor.DataType.
// Float16 has no in-memory tensor representation; the weights loader
// widens it on read, so it is not accepted here.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeUint8:
		return tensor.Uint8, true
	default:
		return 0, false
	}
}
