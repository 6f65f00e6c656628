package loader

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// SafeTensorsWriter streams one safetensors file. Entries are laid out in
// name order, matching the sorted offsets in the header index.
type SafeTensorsWriter struct {
	file   *os.File
	closed bool
}

// NewSafeTensorsWriter creates path and prepares it for WriteTensors.
func NewSafeTensorsWriter(path string) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: callers choose where model files are saved
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create safetensors file: %w", err)
	}
	return &SafeTensorsWriter{file: file}, nil
}

// WriteSafeTensors stores tensors under their names in a safetensors file
// at path: a little-endian uint64 header length, the JSON index, then the
// raw payload in name order.
func WriteSafeTensors(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	writer, err := NewSafeTensorsWriter(path)
	if err != nil {
		return err
	}
	defer func() { _ = writer.Close() }()

	if err := writer.WriteTensors(tensors, metadata); err != nil {
		return err
	}
	return writer.Close()
}

// WriteTensors writes the header and payload for tensors. Offsets are
// assigned in sorted name order, so the payload follows the same order.
func (w *SafeTensorsWriter) WriteTensors(tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("safetensors writer already closed")
	}

	names := slices.Sorted(maps.Keys(tensors))

	entries := make(map[string]any, len(tensors)+1)
	if len(metadata) > 0 {
		entries["__metadata__"] = metadata
	}

	var offset int64
	for _, name := range names {
		raw := tensors[name]
		dtype, err := dataTypeToSafeTensorsDType(raw.DType())
		if err != nil {
			return fmt.Errorf("tensor %s: %w", name, err)
		}
		size := int64(raw.ByteSize())
		entries[name] = SafeTensorInfo{
			DType:       dtype,
			Shape:       raw.Shape().Clone(),
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	index, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode header JSON: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(index))); err != nil {
		return fmt.Errorf("write header length: %w", err)
	}
	if _, err := w.file.Write(index); err != nil {
		return fmt.Errorf("write header JSON: %w", err)
	}

	for _, name := range names {
		if _, err := w.file.Write(tensors[name].Data()); err != nil {
			return fmt.Errorf("write tensor %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the underlying file. Second and later calls are no-ops.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// dataTypeToSafeTensorsDType converts a Lattice DataType to a SafeTensors
// dtype tag. Float32 is the widest precision Lattice stores, so F16/BF16
// never round-trip.
func dataTypeToSafeTensorsDType(dt tensor.DataType) (SafeTensorsDType, error) {
	switch dt {
	case tensor.Float32:
		return SafeTensorsF32, nil
	case tensor.Float64:
		return SafeTensorsF64, nil
	case tensor.Int32:
		return SafeTensorsI32, nil
	case tensor.Int64:
		return SafeTensorsI64, nil
	case tensor.Uint8:
		return SafeTensorsU8, nil
	default:
		return "", fmt.Errorf("no safetensors tag for dtype %s", dt)
	}
}
