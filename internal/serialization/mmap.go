package serialization

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/lattice-ml/lattice/internal/tensor"
)

// MmapReader provides memory-mapped access to .latc files. Only the header
// is parsed up front; tensor bytes are faulted in by the OS page cache as
// they are touched, which keeps opening a multi-gigabyte model cheap.
type MmapReader struct {
	file    *os.File
	data    []byte // mapped region, read-only
	size    int64
	header  Header
	index   map[string]int // tensor name -> position in header.Tensors
	fixed   fixedHeader
	payload int64 // offset of the first tensor byte within the mapping
	closed  bool
}

// NewMmapReader opens path read-only and maps it into memory.
//
// Always Close the reader when done; the mapping holds the file open.
func NewMmapReader(path string) (*MmapReader, error) {
	//nolint:gosec // G304: the caller chooses which model file to open
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	size := stat.Size()

	data, err := mmapFile(file, size)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("map archive into memory: %w", err)
	}

	r := &MmapReader{file: file, data: data, size: size}

	if err := r.parseHeader(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("parse header: %w", err)
	}

	return r, nil
}

// parseHeader decodes the fixed header, the JSON section, and the tensor
// index from the mapped bytes.
func (r *MmapReader) parseHeader() error {
	if r.size < FixedHeaderSize {
		return fmt.Errorf("file too small: %d bytes (minimum %d bytes required)", r.size, FixedHeaderSize)
	}

	fixed, err := parseFixedHeader(r.data[:FixedHeaderSize])
	if err != nil {
		return err
	}
	r.fixed = fixed

	//nolint:gosec // G115: headerSize is capped at MaxHeaderSize
	headerEnd := int64(FixedHeaderSize) + int64(fixed.headerSize)
	if headerEnd > r.size {
		return fmt.Errorf("JSON header extends beyond file: ends at %d, file is %d bytes", headerEnd, r.size)
	}
	if err := json.Unmarshal(r.data[FixedHeaderSize:headerEnd], &r.header); err != nil {
		return fmt.Errorf("decode header JSON: %w", err)
	}

	// Tensor data starts at the next 64-byte boundary and must fit
	// inside the mapping.
	r.payload = alignTo(headerEnd)
	if r.payload+r.fixed.dataSize > r.size {
		return fmt.Errorf("data section extends beyond file: offset %d + size %d > file size %d",
			r.payload, r.fixed.dataSize, r.size)
	}

	if err := ValidateHeader(&r.header, r.fixed.dataSize, ValidationStrict); err != nil {
		return fmt.Errorf("validate header: %w", err)
	}

	r.index = make(map[string]int, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		r.index[t.Name] = i
	}

	return nil
}

// Close unmaps and closes the file. Safe to call more than once.
func (r *MmapReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.data != nil {
		err = munmapFile(r.data)
		r.data = nil
	}

	if closeErr := r.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}

func (r *MmapReader) ensureOpen() error {
	if r.closed {
		return fmt.Errorf("archive reader already closed")
	}
	return nil
}

// Header returns the decoded file header.
func (r *MmapReader) Header() Header {
	return r.header
}

// Version returns the format version.
func (r *MmapReader) Version() uint32 {
	return r.fixed.version
}

// Flags returns the fixed-header flag bits.
func (r *MmapReader) Flags() uint32 {
	return r.fixed.flags
}

// Checksum returns the SHA-256 checksum of the data section.
func (r *MmapReader) Checksum() [32]byte {
	return r.fixed.checksum
}

// VerifyChecksum hashes the mapped data section and compares against the
// stored checksum. Unlike LatticeReader, the mmap path does not verify on
// open; call this when integrity matters more than load latency.
func (r *MmapReader) VerifyChecksum() error {
	if err := r.ensureOpen(); err != nil {
		return err
	}
	computed := ComputeChecksum(r.data[r.payload : r.payload+r.fixed.dataSize])
	return ValidateChecksum(computed, r.fixed.checksum)
}

// TensorNames returns all tensor names in index order.
func (r *MmapReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for _, t := range r.header.Tensors {
		names = append(names, t.Name)
	}
	return names
}

// TensorInfo returns the index entry for one tensor.
func (r *MmapReader) TensorInfo(name string) (*TensorMeta, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("no tensor named %q", name)
	}
	return &r.header.Tensors[i], nil
}

// TensorData returns a zero-copy view of one tensor's bytes. The slice
// aliases the mapping: it is only valid while the reader is open, and
// writing through it is undefined. Use TensorDataCopy for a mutable copy.
func (r *MmapReader) TensorData(name string) ([]byte, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	start := r.payload + meta.Offset
	end := start + meta.Size

	if end > r.size {
		return nil, fmt.Errorf("%w: tensor %q: bytes [%d:%d] outside the %d-byte mapping",
			ErrOutOfBounds, name, start, end, r.size)
	}

	return r.data[start:end], nil
}

// TensorDataCopy returns tensor bytes in a fresh buffer the caller owns.
func (r *MmapReader) TensorDataCopy(name string) ([]byte, error) {
	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}

	return slices.Clone(data), nil
}

// LoadTensor materializes one tensor on the given backend, copying its
// bytes out of the mapping.
func (r *MmapReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	data, err := r.TensorData(name)
	if err != nil {
		return nil, err
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	return materialize(meta, data, backend)
}

// ReadTensors materializes every tensor in the file, keyed by name.
func (r *MmapReader) ReadTensors(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}

	tensors := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, err
		}
		tensors[meta.Name] = raw
	}

	return tensors, nil
}
