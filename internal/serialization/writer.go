package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/lattice-ml/lattice/internal/tensor"
)

const latticeVersion = "0.2.0" // Current Lattice version

// LatticeWriter writes models in .latc format.
type LatticeWriter struct {
	file   *os.File
	closed bool
}

// NewLatticeWriter creates a new .latc file writer.
func NewLatticeWriter(path string) (*LatticeWriter, error) {
	//nolint:gosec // G304: callers choose where model files are saved
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}
	return &LatticeWriter{file: file}, nil
}

// WriteTensors writes a named tensor map to the .latc file.
//
// The caller controls ModelType, Architecture and Metadata through the
// header; format version, Lattice version and creation time are stamped
// here. Tensors are written in alphabetical order by name so output is
// deterministic.
func (w *LatticeWriter) WriteTensors(tensors map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("archive writer already closed")
	}
	return WriteTo(w.file, tensors, header)
}

// Close releases the file. A second Close is a no-op.
func (w *LatticeWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteArchive writes tensors to a .latc file at path.
func WriteArchive(path string, tensors map[string]*tensor.RawTensor, header Header) error {
	writer, err := NewLatticeWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = writer.Close()
	}()

	if err := writer.WriteTensors(tensors, header); err != nil {
		return err
	}
	return writer.Close()
}

// WriteTo writes a .latc archive to an io.Writer, so archives can be built
// in memory or streamed over a connection.
func WriteTo(writer io.Writer, tensors map[string]*tensor.RawTensor, header Header) error {
	header.FormatVersion = FormatVersion
	header.LatticeVersion = latticeVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var payload []byte
	header.Tensors, payload = buildIndex(tensors)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header JSON: %w", err)
	}

	fixed := packFixedHeader(headerFlags(header), uint64(len(headerJSON)), uint64(len(payload)), ComputeChecksum(payload))
	if _, err := writer.Write(fixed); err != nil {
		return fmt.Errorf("write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("write header JSON: %w", err)
	}

	// Pad so tensor data starts on a 64-byte boundary.
	pos := int64(FixedHeaderSize) + int64(len(headerJSON))
	if padding := alignTo(pos) - pos; padding > 0 {
		if _, err := writer.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}

	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("write tensor data: %w", err)
	}
	return nil
}

// buildIndex lays the tensors out back to back in name order and
// returns the resulting metadata next to the concatenated data section.
func buildIndex(tensors map[string]*tensor.RawTensor) ([]TensorMeta, []byte) {
	metas := make([]TensorMeta, 0, len(tensors))
	var payload []byte

	var offset int64
	for _, name := range slices.Sorted(maps.Keys(tensors)) {
		raw := tensors[name]
		size := int64(raw.ByteSize())

		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  raw.Shape().Clone(),
			Offset: offset,
			Size:   size,
		})

		offset += size
		payload = append(payload, raw.Data()...)
	}
	return metas, payload
}

// headerFlags derives the fixed-header flag bits from what the JSON
// header actually carries.
func headerFlags(h Header) uint32 {
	var flags uint32
	if len(h.Architecture) > 0 {
		flags |= FlagHasArchitecture
	}
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	return flags
}

// packFixedHeader assembles the 64-byte preamble: magic, version and
// flags up front, JSON and data section sizes at 0x10 and 0x18, then
// the SHA-256 of the data section at ChecksumOffset. Bytes 0x0C-0x0F
// are reserved and stay zero.
func packFixedHeader(flags uint32, headerSize, dataSize uint64, checksum [ChecksumSize]byte) []byte {
	buf := make([]byte, FixedHeaderSize)
	copy(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(buf[8:12], flags)
	binary.LittleEndian.PutUint64(buf[16:24], headerSize)
	binary.LittleEndian.PutUint64(buf[24:32], dataSize)
	copy(buf[ChecksumOffset:], checksum[:])
	return buf
}
