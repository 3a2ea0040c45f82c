package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/5usu/depthgo/internal/graph"
	"github.com/5usu/depthgo/internal/tensor"
)

const toolVersion = "0.3.0"

// Writer writes .ptl containers.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a writer for the given path.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: the output path comes from the caller
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// WriteArtifact writes an exported program: the operation graph plus
// its constant tensors.
func (w *Writer) WriteArtifact(g *graph.Graph, constants map[string]*tensor.RawTensor, modelKey string, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		ToolVersion:   toolVersion,
		Kind:          KindGraph,
		ModelKey:      modelKey,
		CreatedAt:     time.Now().UTC(),
		Graph:         g,
		Metadata:      metadata,
	}
	return w.write(header, constants)
}

// WriteStateDict writes a weight checkpoint: named parameter tensors
// without a graph.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		ToolVersion:   toolVersion,
		Kind:          KindStateDict,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}
	return w.write(header, stateDict)
}

func (w *Writer) write(header Header, tensors map[string]*tensor.RawTensor) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Sorted tensor order keeps the artifact byte-for-byte
	// reproducible across runs with identical inputs.
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	var currentOffset int64
	header.Tensors = make([]TensorMeta, 0, len(tensors))
	for _, name := range names {
		raw := tensors[name]
		size := int64(raw.ByteSize())

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})
		currentOffset += size
	}

	dataBuf := make([]byte, 0, currentOffset)
	for _, name := range names {
		dataBuf = append(dataBuf, tensors[name].Data()...)
	}
	checksum := ComputeChecksum(dataBuf)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerSize := uint64(len(headerJSON))
	dataSize := uint64(len(dataBuf))

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	// 0x0C-0x0F reserved, zero from make()
	binary.LittleEndian.PutUint64(fixed[16:24], headerSize)
	binary.LittleEndian.PutUint64(fixed[24:32], dataSize)
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(dataBuf); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
